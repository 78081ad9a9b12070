package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	value int
}

func TestPool(t *testing.T) {
	resets := 0
	p := NewPool(
		func() *item { return &item{} },
		func(it *item) { resets++; it.value = 0 },
		func(*item) {},
	)

	it := p.Get()
	require.NotNil(t, it)
	require.Equal(t, uint64(1), p.Allocated())

	it.value = 42
	p.Put(it, nil)
	require.Equal(t, 1, resets)
	require.Zero(t, it.value)
	require.Equal(t, uint64(1), p.Recycled())
}

func TestPoolNoReuse(t *testing.T) {
	ReuseMemory = false
	defer func() { ReuseMemory = true }()

	p := NewPool(
		func() *item { return &item{} },
		func(*item) {},
		func(*item) {},
	)
	p.Put(p.Get())
	require.Zero(t, p.Recycled())
}
