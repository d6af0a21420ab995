package endian

import (
	"encoding/binary"
	"sync"
)

// PutUint16 stores v big-endian at b[0:2].
func PutUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

// PutUint32 stores v big-endian at b[0:4].
func PutUint32(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

// PutUint64 stores v big-endian at b[0:8].
func PutUint64(b []byte, v uint64) {
	binary.BigEndian.PutUint64(b, v)
}

// Uint16 loads a big-endian uint16 from b[0:2].
func Uint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// Uint32 loads a big-endian uint32 from b[0:4].
func Uint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// Uint64 loads a big-endian uint64 from b[0:8].
func Uint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

var (
	checkOnce sync.Once
	checkOK   bool
)

// Check verifies the store and load paths agree with network byte order.
// It writes the ASCII pattern "1234" through PutUint32 and compares the
// raw bytes and the re-loaded value against the expected interpretation.
// The result cannot change within a process, so it is computed once.
func Check() bool {
	checkOnce.Do(func() {
		checkOK = selfCheck()
	})
	return checkOK
}

func selfCheck() bool {
	var buf [4]byte
	PutUint32(buf[:], 0x31323334)
	if string(buf[:]) != "1234" {
		return false
	}
	return Uint32([]byte("1234")) == 0x31323334
}
