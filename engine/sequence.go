package engine

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Shuffler is the random source used to order trials. *rand.Rand
// satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// GenerateSequence tiles the stimulus ids 1..numStimuli numTrials times
// and shuffles the result, so every id appears exactly numTrials times.
func GenerateSequence(numTrials, numStimuli int, rng Shuffler) ([]int, error) {
	if numTrials <= 0 || numStimuli <= 0 {
		return nil, fmt.Errorf("%w: need positive trials and stimuli, got %d and %d", ErrInvalidConfig, numTrials, numStimuli)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}

	seq := make([]int, 0, numTrials*numStimuli)
	for t := 0; t < numTrials; t++ {
		for id := 1; id <= numStimuli; id++ {
			seq = append(seq, id)
		}
	}
	rng.Shuffle(len(seq), func(i, j int) {
		seq[i], seq[j] = seq[j], seq[i]
	})
	return seq, nil
}

// NewRand returns a PCG source for seed. A zero seed draws one from the
// clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
