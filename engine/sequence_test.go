package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSequence_balanced(t *testing.T) {
	for _, tc := range []struct{ trials, stimuli int }{{1, 1}, {1, 2}, {20, 2}, {7, 4}} {
		for seed := uint64(1); seed <= 5; seed++ {
			seq, err := GenerateSequence(tc.trials, tc.stimuli, NewRand(seed))
			require.NoError(t, err)
			require.Len(t, seq, tc.trials*tc.stimuli)

			counts := make(map[int]int)
			for _, id := range seq {
				counts[id]++
			}
			require.Len(t, counts, tc.stimuli)
			for id := 1; id <= tc.stimuli; id++ {
				assert.Equal(t, tc.trials, counts[id], "id %d with %d trials", id, tc.trials)
			}
		}
	}
}

func TestGenerateSequence_reproducible(t *testing.T) {
	a, err := GenerateSequence(20, 2, NewRand(42))
	require.NoError(t, err)
	b, err := GenerateSequence(20, 2, NewRand(42))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

type identityShuffler struct{ calls int }

func (s *identityShuffler) Shuffle(n int, swap func(i, j int)) { s.calls++ }

func TestGenerateSequence_tilesBeforeShuffle(t *testing.T) {
	rng := &identityShuffler{}
	seq, err := GenerateSequence(3, 2, rng)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1, 2, 1, 2}, seq)
	assert.Equal(t, 1, rng.calls)
}

func TestGenerateSequence_invalid(t *testing.T) {
	_, err := GenerateSequence(0, 2, NewRand(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = GenerateSequence(2, 0, NewRand(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = GenerateSequence(-1, 2, NewRand(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = GenerateSequence(2, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
