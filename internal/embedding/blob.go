package embedding

import (
	"encoding/binary"
	"math"
)

// Dim is the fixed output width of every embedding this package
// produces: a 384-float unit vector.
const Dim = 384

// ToBlob encodes a float32 vector as little-endian IEEE-754 bytes, the
// wire format stored in the embeddings and vec_embeddings tables.
func ToBlob(vec []float32) []byte {
	blob := make([]byte, 0, len(vec)*4)
	var buf [4]byte
	for _, v := range vec {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		blob = append(blob, buf[:]...)
	}
	return blob
}

// FromBlob decodes a little-endian float32 blob back into a vector.
// Trailing bytes that don't form a complete float are dropped.
func FromBlob(blob []byte) []float32 {
	n := len(blob) / 4
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec
}
