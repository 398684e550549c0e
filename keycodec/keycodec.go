// Package keycodec transcodes natural-ordered Go values into
// binary-comparable byte strings and back. Every key the tree stores
// internally is such a byte string; the tree itself never compares keys
// semantically, it treats whatever this package produces as an opaque
// byte string compared lexicographically.
//
// It stays intentionally small: fixed-width integers and byte-string
// passthrough.
package keycodec

import "encoding/binary"

// Bytes returns key unchanged: an opaque byte string is already
// binary-comparable by definition.
func Bytes(key []byte) []byte { return key }

// Uint64 encodes an unsigned 64-bit integer big-endian, which is already
// order-preserving for unsigned comparison.
func Uint64(key uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, key)

	return buf
}

// DecodeUint64 reverses Uint64.
func DecodeUint64(encoded []byte) uint64 {
	return binary.BigEndian.Uint64(encoded)
}

// Int64 encodes a signed 64-bit integer big-endian with the sign bit
// flipped, so that lexicographic byte order matches signed numeric order.
func Int64(key int64) []byte {
	return Uint64(uint64(key) ^ signBit64)
}

// DecodeInt64 reverses Int64.
func DecodeInt64(encoded []byte) int64 {
	return int64(DecodeUint64(encoded) ^ signBit64)
}

const signBit64 = uint64(1) << 63

// Uint32 encodes an unsigned 32-bit integer big-endian.
func Uint32(key uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, key)

	return buf
}

// DecodeUint32 reverses Uint32.
func DecodeUint32(encoded []byte) uint32 {
	return binary.BigEndian.Uint32(encoded)
}

// Int32 encodes a signed 32-bit integer big-endian with the sign bit
// flipped.
func Int32(key int32) []byte {
	return Uint32(uint32(key) ^ signBit32)
}

// DecodeInt32 reverses Int32.
func DecodeInt32(encoded []byte) int32 {
	return int32(DecodeUint32(encoded) ^ signBit32)
}

const signBit32 = uint32(1) << 31
