package kstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyper-org/Unishyper-sub001/kerr"
)

func TestAllocRejectsNonPositiveSize(t *testing.T) {
	p := NewPool(4096)
	_, err := p.Alloc(0)
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.InvArg))
}

func TestAllocRoundsUpToWholePages(t *testing.T) {
	p := NewPool(4096)
	r, err := p.Alloc(1)
	require.NoError(t, err)
	assert.Equal(t, 4096, r.Size())
}

func TestAllocExactMultipleOfPageSizeIsUnchanged(t *testing.T) {
	p := NewPool(4096)
	r, err := p.Alloc(8192)
	require.NoError(t, err)
	assert.Equal(t, 8192, r.Size())
}

func TestTopIsBasePlusSize(t *testing.T) {
	p := NewPool(4096)
	r, err := p.Alloc(4096)
	require.NoError(t, err)
	assert.Equal(t, r.Base()+uintptr(r.Size()), r.Top())
}

func TestReleaseIsIdempotent(t *testing.T) {
	p := NewPool(4096)
	r, err := p.Alloc(4096)
	require.NoError(t, err)

	require.NoError(t, p.Release(r))
	require.NoError(t, p.Release(r))

	_, freed := p.Stats()
	assert.Equal(t, 1, freed, "releasing the same region twice must only count once")
}

func TestReleaseNilIsNoop(t *testing.T) {
	p := NewPool(4096)
	assert.NoError(t, p.Release(nil))
}

func TestStatsTracksAllocatedAndFreed(t *testing.T) {
	p := NewPool(4096)
	a, err := p.Alloc(4096)
	require.NoError(t, err)
	b, err := p.Alloc(4096)
	require.NoError(t, err)

	allocated, freed := p.Stats()
	assert.Equal(t, 2, allocated)
	assert.Equal(t, 0, freed)

	require.NoError(t, p.Release(a))
	allocated, freed = p.Stats()
	assert.Equal(t, 2, allocated)
	assert.Equal(t, 1, freed)

	require.NoError(t, p.Release(b))
	_, freed = p.Stats()
	assert.Equal(t, 2, freed)
}

func TestDefaultPageSizeAppliesWhenNonPositive(t *testing.T) {
	p := NewPool(0)
	r, err := p.Alloc(1)
	require.NoError(t, err)
	assert.Equal(t, 4096, r.Size())
}
