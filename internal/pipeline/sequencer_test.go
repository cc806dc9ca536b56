package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerAssignsMonotonicIDs(t *testing.T) {
	s := NewSequencer()
	for i := 0; i < 10; i++ {
		item, err := s.Process(context.Background(), &Item{})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), item.Seq)
	}
	assert.Equal(t, uint64(10), s.Next())
}

func TestSequencerReset(t *testing.T) {
	s := NewSequencer()
	_, err := s.Process(context.Background(), &Item{})
	require.NoError(t, err)

	s.Reset()
	item, err := s.Process(context.Background(), &Item{})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), item.Seq)
}

func TestSequencerOverflow(t *testing.T) {
	s := NewSequencer()
	s.next.Store(math.MaxUint64)

	_, err := s.Process(context.Background(), &Item{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSequenceOverflow)
}
