package entropy

import (
	"crypto/rand"
	"encoding/binary"
)

// maxDrawnSeed keeps auto-drawn seeds short enough to read off a run id.
const maxDrawnSeed = 1_000_000

// DrawSeed picks a fresh run seed using crypto/rand. Used when the caller
// does not supply a seed; the drawn value is recorded on the run result so
// the run stays replayable.
func DrawSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but a fixed seed keeps the run usable.
		return 1
	}
	n := binary.LittleEndian.Uint64(buf[:]) % maxDrawnSeed
	return int64(n)
}
