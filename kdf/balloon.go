package kdf

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// balloonDelta is the number of pseudo-random neighbor blocks mixed
// into each block during every round of the mixing phase, following
// the recommended delta=3 from the Balloon hashing paper (Boneh,
// Corrigan-Gibbs, Schechter).
const balloonDelta = 3

// balloon runs the Balloon hashing construction over password/salt
// using BLAKE3 as the underlying compression function, and returns a
// blockLen-byte digest. It is a memory-hard KDF: the s_cost parameter
// forces the caller to hold numBlocks()*blockLen bytes of state for
// the duration of the computation, making large-scale parallel
// brute-force meaningfully more expensive.
func balloon(password, salt []byte, p params) []byte {
	n := p.numBlocks()
	buf := make([][blockLen]byte, n)

	var cnt uint64
	h := blake3.New()

	hashInto := func(dst *[blockLen]byte, parts ...[]byte) {
		h.Reset()
		var cntBuf [8]byte
		binary.LittleEndian.PutUint64(cntBuf[:], cnt)
		cnt++
		h.Write(cntBuf[:])
		for _, part := range parts {
			h.Write(part)
		}
		sum := h.Sum(nil)
		copy(dst[:], sum[:blockLen])
	}

	// Expansion: fill the buffer from the password and salt.
	hashInto(&buf[0], password, salt)
	for m := 1; m < n; m++ {
		hashInto(&buf[m], buf[m-1][:])
	}

	// Mixing: t_cost rounds, each touching every block and delta
	// pseudo-random neighbors of it.
	for t := 0; t < p.timeCost; t++ {
		for m := 0; m < n; m++ {
			prev := (m - 1 + n) % n
			hashInto(&buf[m], buf[prev][:], buf[m][:])

			for i := 0; i < balloonDelta; i++ {
				var tBuf, mBuf, iBuf [8]byte
				binary.LittleEndian.PutUint64(tBuf[:], uint64(t))
				binary.LittleEndian.PutUint64(mBuf[:], uint64(m))
				binary.LittleEndian.PutUint64(iBuf[:], uint64(i))

				var other [blockLen]byte
				hashInto(&other, salt, tBuf[:], mBuf[:], iBuf[:])
				otherIdx := int(binary.LittleEndian.Uint64(other[:8]) % uint64(n))

				hashInto(&buf[m], buf[m][:], buf[otherIdx][:])
			}
		}
	}

	out := make([]byte, blockLen)
	copy(out, buf[n-1][:])
	return out
}
