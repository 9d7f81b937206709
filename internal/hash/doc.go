// Package hash provides the CRC32-Castagnoli checksum used for object
// store integrity headers.
//
//	checksum := hash.CRC32C(data)
package hash
