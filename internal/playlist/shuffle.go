package playlist

import (
	"math/rand"
	"time"

	"photoframe/internal/provider"
)

// lcg is a small linear congruential generator (Knuth's MMIX
// multiplier). The high bits carry the randomness, so indexes are
// drawn from the top of the state word.
type lcg struct {
	state uint64
}

func (g *lcg) intn(n int) int {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return int((g.state >> 33) % uint64(n))
}

// Shuffle permutes the photos in place with two Fisher-Yates passes.
// The first pass is driven by an LCG seeded from the wall clock, which
// decorrelates repeated process restarts from any fixed seed; the
// second pass uses the platform random source for entropy. Both passes
// are deliberate: do not collapse them into one.
func Shuffle(photos []provider.Photo) {
	g := &lcg{state: uint64(time.Now().UnixNano())}
	for i := len(photos) - 1; i > 0; i-- {
		j := g.intn(i + 1)
		photos[i], photos[j] = photos[j], photos[i]
	}

	rand.Shuffle(len(photos), func(i, j int) {
		photos[i], photos[j] = photos[j], photos[i]
	})
}
