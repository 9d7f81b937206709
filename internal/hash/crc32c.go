package hash

import (
	"encoding/base64"
	"hash"
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a streaming CRC32-Castagnoli hash.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// CRC32CBase64 returns the checksum as base64 of its big-endian bytes, the
// form S3 expects in x-amz-checksum-crc32c.
func CRC32CBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(NewCRC32CSum(data))
}

// NewCRC32CSum returns the big-endian checksum bytes of data.
func NewCRC32CSum(data []byte) []byte {
	h := NewCRC32C()
	_, _ = h.Write(data)
	return h.Sum(nil)
}
