package projection

import (
	"math/rand/v2"
)

// NormalSource draws standard normal variates. Implementations are owned by
// one goroutine at a time; the simulator never shares one across workers.
type NormalSource interface {
	NormFloat64() float64
}

// NewSource returns a seeded single-stream source
func NewSource(seed uint64) NormalSource {
	return rand.New(rand.NewPCG(seed, splitmix64(seed)))
}

// NewPathStream returns the stream owned by path index. Streams for distinct
// indices of the same seed do not overlap in practice, and the mapping is
// independent of how paths are spread across workers.
func NewPathStream(seed uint64, path int) NormalSource {
	return rand.New(rand.NewPCG(seed, splitmix64(uint64(path)+0x9e3779b97f4a7c15)))
}

// splitmix64 decorrelates neighbouring integers before they seed a PCG stream
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
