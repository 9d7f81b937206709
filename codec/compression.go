package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies a block compression algorithm.
//
// The numeric value is persisted in snapshot headers and must never change.
type Compression uint8

const (
	// CompressionNone stores blocks verbatim.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses zstd (better ratio).
	CompressionZSTD Compression = 2
)

// ErrCorruptBlock is returned when a block header or payload is inconsistent.
var ErrCorruptBlock = errors.New("codec: corrupt block")

// BlockHeaderSize is the size of the [uncompressed u32][compressed u32] prefix.
const BlockHeaderSize = 8

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Valid reports whether c is a known algorithm.
func (c Compression) Valid() bool { return c <= CompressionZSTD }

// ParseCompression parses "none", "lz4" or "zstd" (case-insensitive).
// The empty string maps to CompressionNone.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("codec: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// CompressBlock compresses data and prefixes it with a block header.
//
// When compression does not shrink the payload below 90% of its size the
// block is stored raw (compressed size 0 in the header).
func CompressBlock(data []byte, c Compression) ([]byte, error) {
	if len(data) > math.MaxUint32 {
		return nil, fmt.Errorf("codec: block of %d bytes exceeds 4GiB", len(data))
	}

	var (
		compressed []byte
		err        error
	)
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		compressed, err = compressZSTD(data)
	default:
		return nil, fmt.Errorf("codec: unknown compression %d", c)
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, BlockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[BlockHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, BlockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[BlockHeaderSize:], compressed)
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return dst[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, err
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

// DecompressBlock reverses CompressBlock. The returned slice may alias data
// for raw blocks.
func DecompressBlock(data []byte, c Compression) ([]byte, error) {
	if len(data) < BlockHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorruptBlock, len(data))
	}
	rawSize := binary.LittleEndian.Uint32(data[0:])
	compSize := binary.LittleEndian.Uint32(data[4:])
	body := data[BlockHeaderSize:]

	if compSize == 0 {
		if uint64(len(body)) < uint64(rawSize) {
			return nil, fmt.Errorf("%w: raw block truncated", ErrCorruptBlock)
		}
		return body[:rawSize:rawSize], nil
	}
	if uint64(len(body)) < uint64(compSize) {
		return nil, fmt.Errorf("%w: compressed block truncated", ErrCorruptBlock)
	}
	body = body[:compSize]
	out := make([]byte, rawSize)

	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
		}
		if uint32(n) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return out, nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
		}
		if uint32(len(decoded)) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: compressed block with compression %v", ErrCorruptBlock, c)
	}
}
