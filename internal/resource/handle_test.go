package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandle() (*Handle, *int, *int) {
	allocs := 0
	frees := 0
	h := NewHandle("extractor",
		func() (any, error) {
			allocs++
			return make([]byte, 16), nil
		},
		func(buf any) error {
			frees++
			return nil
		})
	return h, &allocs, &frees
}

func TestHandleOwnerAllocatesOnce(t *testing.T) {
	h, allocs, _ := testHandle()

	buf, err := h.Acquire("extractor")
	require.NoError(t, err)
	require.NotNil(t, buf)

	_, err = h.Acquire("extractor")
	require.NoError(t, err)
	assert.Equal(t, 1, *allocs)
	assert.Equal(t, uint64(2), h.Generation())
}

func TestHandleHolderBeforeOwnerFails(t *testing.T) {
	h, _, _ := testHandle()
	h.AddHolder("renderer")

	_, err := h.Acquire("renderer")
	assert.Error(t, err)
}

func TestHandleReleaseProtocol(t *testing.T) {
	h, _, frees := testHandle()
	h.AddHolder("renderer")
	h.SetReleaser("saver")

	_, err := h.Acquire("extractor")
	require.NoError(t, err)

	// Release before the holder used this generation.
	err = h.Release("saver")
	require.Error(t, err)

	_, err = h.Acquire("renderer")
	require.NoError(t, err)

	require.NoError(t, h.Release("saver"))
	assert.True(t, h.Released())
	assert.Equal(t, 1, *frees)
}

func TestHandleReleaseByNonReleaser(t *testing.T) {
	h, _, _ := testHandle()
	h.SetReleaser("saver")

	_, err := h.Acquire("extractor")
	require.NoError(t, err)

	err = h.Release("renderer")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReleaser))
}

func TestHandleDoubleRelease(t *testing.T) {
	h, _, frees := testHandle()
	h.SetReleaser("saver")

	_, err := h.Acquire("extractor")
	require.NoError(t, err)
	require.NoError(t, h.Release("saver"))

	err = h.Release("saver")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDoubleRelease))
	assert.Equal(t, 1, *frees)
}

func TestHandleUseAfterRelease(t *testing.T) {
	h, _, _ := testHandle()
	h.AddHolder("renderer")
	h.SetReleaser("saver")

	_, err := h.Acquire("extractor")
	require.NoError(t, err)
	_, err = h.Acquire("renderer")
	require.NoError(t, err)
	require.NoError(t, h.Release("saver"))

	_, err = h.Acquire("renderer")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReleased))
}

func TestHandleReleaseBeforeAllocation(t *testing.T) {
	h, _, _ := testHandle()
	h.SetReleaser("saver")

	err := h.Release("saver")
	assert.Error(t, err)
}

func TestHandleAllocFailure(t *testing.T) {
	h := NewHandle("extractor",
		func() (any, error) { return nil, errors.New("out of device memory") },
		nil)

	_, err := h.Acquire("extractor")
	assert.Error(t, err)
}
