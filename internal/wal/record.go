package wal

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"math"
)

// RecordType identifies the type of WAL record.
type RecordType uint8

const (
	// RecordTypeAppend carries one vector appended to the store.
	RecordTypeAppend RecordType = 1
	// RecordTypeCheckpoint marks that every record up to SnapshotLSN is
	// covered by a snapshot. It is the first record after Truncate.
	RecordTypeCheckpoint RecordType = 2
)

func (t RecordType) String() string {
	switch t {
	case RecordTypeAppend:
		return "append"
	case RecordTypeCheckpoint:
		return "checkpoint"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidCRC     = errors.New("invalid WAL record checksum")
	ErrInvalidType    = errors.New("invalid WAL record type")
	ErrShortRead      = errors.New("short read in WAL record")
	ErrRecordTooLarge = errors.New("WAL record too large")
)

const (
	// recordHeaderSize is CRC (4) + Type (1) + LSN (8) + Length (4).
	recordHeaderSize = 17
	maxPayloadSize   = 100 * 1024 * 1024
)

// Record represents a single operation in the WAL.
type Record struct {
	LSN         uint64
	Type        RecordType
	Vector      []float32 // RecordTypeAppend
	SnapshotLSN uint64    // RecordTypeCheckpoint
}

func (r *Record) payloadSize() int {
	switch r.Type {
	case RecordTypeAppend:
		return 4 + len(r.Vector)*4
	case RecordTypeCheckpoint:
		return 8
	default:
		return 0
	}
}

// Size returns the encoded size of the record in bytes.
func (r *Record) Size() int {
	return recordHeaderSize + r.payloadSize()
}

// Encode writes the record to w.
// Format:
// [CRC32: 4 bytes] [Type: 1 byte] [LSN: 8 bytes] [Length: 4 bytes] [Payload: Length bytes]
// Payload for Append: [Dim: 4 bytes] [Vector: Dim*4 bytes]
// Payload for Checkpoint: [SnapshotLSN: 8 bytes]
// The CRC covers everything after itself.
func (r *Record) Encode(w io.Writer) error {
	if r.Type != RecordTypeAppend && r.Type != RecordTypeCheckpoint {
		return ErrInvalidType
	}

	buf := make([]byte, r.Size())
	buf[4] = byte(r.Type)
	binary.LittleEndian.PutUint64(buf[5:], r.LSN)
	binary.LittleEndian.PutUint32(buf[13:], uint32(r.payloadSize()))

	payload := buf[recordHeaderSize:]
	switch r.Type {
	case RecordTypeAppend:
		binary.LittleEndian.PutUint32(payload, uint32(len(r.Vector)))
		for i, v := range r.Vector {
			binary.LittleEndian.PutUint32(payload[4+i*4:], math.Float32bits(v))
		}
	case RecordTypeCheckpoint:
		binary.LittleEndian.PutUint64(payload, r.SnapshotLSN)
	}

	binary.LittleEndian.PutUint32(buf[0:4], crc32.ChecksumIEEE(buf[4:]))
	_, err := w.Write(buf)
	return err
}

// Decode reads a record from r and returns it with the number of bytes
// consumed. A clean end of input yields io.EOF; a record cut short yields
// io.ErrUnexpectedEOF.
func Decode(r io.Reader) (*Record, int64, error) {
	header := make([]byte, recordHeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil {
		return nil, int64(n), err
	}

	checksum := binary.LittleEndian.Uint32(header[0:4])
	recType := RecordType(header[4])
	lsn := binary.LittleEndian.Uint64(header[5:])
	length := binary.LittleEndian.Uint32(header[13:])

	if length > maxPayloadSize {
		return nil, recordHeaderSize, ErrRecordTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, recordHeaderSize, err
	}
	size := int64(recordHeaderSize) + int64(length)

	crc := crc32.NewIEEE()
	crc.Write(header[4:])
	crc.Write(payload)
	if crc.Sum32() != checksum {
		return nil, size, ErrInvalidCRC
	}

	rec := &Record{Type: recType, LSN: lsn}
	switch recType {
	case RecordTypeAppend:
		if err := parseAppend(payload, rec); err != nil {
			return nil, size, err
		}
	case RecordTypeCheckpoint:
		if len(payload) < 8 {
			return nil, size, ErrShortRead
		}
		rec.SnapshotLSN = binary.LittleEndian.Uint64(payload)
	default:
		return nil, size, ErrInvalidType
	}

	return rec, size, nil
}

func parseAppend(payload []byte, r *Record) error {
	if len(payload) < 4 {
		return ErrShortRead
	}
	dim := int(binary.LittleEndian.Uint32(payload))
	if len(payload) < 4+dim*4 {
		return ErrShortRead
	}
	r.Vector = make([]float32, dim)
	for i := range r.Vector {
		r.Vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4+i*4:]))
	}
	return nil
}
