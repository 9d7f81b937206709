// Package snapshot serializes a vector store into a single self-describing
// blob.
//
// Layout (little endian):
//
//	[Magic "IVFGOSNP"][Version u32][Compression u8][pad 3][Dim u32][Count u64][LSN u64]
//	[Block: codec.CompressBlock of Count*Dim float32]
//	[CRC32 of the uncompressed block payload u32]
//
// The LSN is the last operation-log sequence number covered by the snapshot;
// replay resumes after it.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/ivfgo/codec"
	"github.com/hupe1980/ivfgo/internal/conv"
	"github.com/hupe1980/ivfgo/vectorstore"
)

const (
	magic      = "IVFGOSNP"
	version    = 1
	headerSize = 36

	namePrefix = "snapshot-"
	nameSuffix = ".ivf"
)

var (
	ErrInvalidMagic   = errors.New("snapshot: invalid magic")
	ErrInvalidVersion = errors.New("snapshot: unsupported version")
	ErrChecksum       = errors.New("snapshot: checksum mismatch")
	ErrCorrupt        = errors.New("snapshot: corrupt payload")
)

// Source is the read side of a vector store.
type Source interface {
	Dimension() int
	Count() int
	Raw() []float32
}

// Header describes a snapshot.
type Header struct {
	Dim         int
	Count       int
	LSN         uint64
	Compression codec.Compression
}

// Snapshot is a decoded snapshot.
type Snapshot struct {
	Header
	Data []float32
}

// Store materializes the snapshot as a vector store.
func (s *Snapshot) Store() (*vectorstore.Store, error) {
	return vectorstore.FromRaw(s.Dim, s.Data)
}

// Write encodes src into w and returns the number of bytes written.
func Write(ctx context.Context, w io.Writer, src Source, lsn uint64, c codec.Compression) (int64, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("snapshot: unknown compression %d", c)
	}
	dim, count := src.Dimension(), src.Count()
	raw := src.Raw()
	if len(raw) != dim*count {
		return 0, fmt.Errorf("%w: %d floats for %d x %d", ErrCorrupt, len(raw), count, dim)
	}

	payload := make([]byte, 4*len(raw))
	for i, f := range raw {
		binary.LittleEndian.PutUint32(payload[4*i:], math.Float32bits(f))
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	block, err := codec.CompressBlock(payload, c)
	if err != nil {
		return 0, fmt.Errorf("snapshot: compress: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dim32, err := conv.IntToUint32(dim)
	if err != nil {
		return 0, fmt.Errorf("snapshot: dimension: %w", err)
	}
	count64, err := conv.IntToUint64(count)
	if err != nil {
		return 0, fmt.Errorf("snapshot: count: %w", err)
	}

	hdr := make([]byte, headerSize)
	copy(hdr, magic)
	binary.LittleEndian.PutUint32(hdr[8:], version)
	hdr[12] = byte(c)
	binary.LittleEndian.PutUint32(hdr[16:], dim32)
	binary.LittleEndian.PutUint64(hdr[20:], count64)
	binary.LittleEndian.PutUint64(hdr[28:], lsn)

	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], crc32.ChecksumIEEE(payload))

	var written int64
	for _, part := range [][]byte{hdr, block, sum[:]} {
		n, err := w.Write(part)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Encode is Write into a fresh buffer.
func Encode(ctx context.Context, src Source, lsn uint64, c codec.Compression) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Write(ctx, &buf, src, lsn, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadHeader decodes only the fixed header.
func ReadHeader(r io.Reader) (Header, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Header{}, fmt.Errorf("snapshot: read header: %w", err)
	}
	return parseHeader(hdr[:])
}

func parseHeader(hdr []byte) (Header, error) {
	if string(hdr[:8]) != magic {
		return Header{}, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(hdr[8:]); v != version {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	c := codec.Compression(hdr[12])
	if !c.Valid() {
		return Header{}, fmt.Errorf("%w: compression %d", ErrCorrupt, hdr[12])
	}
	dim := binary.LittleEndian.Uint32(hdr[16:])
	count, err := conv.Uint64ToInt(binary.LittleEndian.Uint64(hdr[20:]))
	if dim == 0 || err != nil || count > math.MaxInt32 {
		return Header{}, fmt.Errorf("%w: dim %d count %d", ErrCorrupt, dim, binary.LittleEndian.Uint64(hdr[20:]))
	}
	return Header{
		Dim:         int(dim),
		Count:       count,
		LSN:         binary.LittleEndian.Uint64(hdr[28:]),
		Compression: c,
	}, nil
}

// Read decodes a snapshot written by Write and verifies its checksum.
func Read(ctx context.Context, r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(ctx, data)
}

// Decode is Read over an in-memory blob.
func Decode(ctx context.Context, data []byte) (*Snapshot, error) {
	if len(data) < headerSize+codec.BlockHeaderSize+4 {
		if len(data) >= 8 && string(data[:8]) != magic {
			return nil, ErrInvalidMagic
		}
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}
	h, err := parseHeader(data[:headerSize])
	if err != nil {
		return nil, err
	}

	block := data[headerSize : len(data)-4]
	payload, err := codec.DecompressBlock(block, h.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if want := uint64(h.Dim) * uint64(h.Count) * 4; uint64(len(payload)) != want {
		return nil, fmt.Errorf("%w: payload %d bytes, want %d", ErrCorrupt, len(payload), want)
	}
	if crc32.ChecksumIEEE(payload) != binary.LittleEndian.Uint32(data[len(data)-4:]) {
		return nil, ErrChecksum
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	floats := make([]float32, len(payload)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
	}
	return &Snapshot{Header: h, Data: floats}, nil
}

// Name returns the blob name for a snapshot covering lsn. Names sort
// lexically in LSN order.
func Name(lsn uint64) string {
	return fmt.Sprintf("%s%020d%s", namePrefix, lsn, nameSuffix)
}

// ParseName extracts the LSN from a name produced by Name.
func ParseName(name string) (uint64, bool) {
	if !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, nameSuffix) {
		return 0, false
	}
	lsn, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, namePrefix), nameSuffix), 10, 64)
	if err != nil {
		return 0, false
	}
	return lsn, true
}
