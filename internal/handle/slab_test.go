package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlab_InsertGetRemove(t *testing.T) {
	s := NewSlab[string]()

	h := s.Insert("a")
	assert.NotZero(t, h)

	v, err := s.Get(h)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.Equal(t, 1, s.Len())

	v, err = s.Remove(h)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.Equal(t, 0, s.Len())

	_, err = s.Get(h)
	assert.ErrorIs(t, err, ErrInvalidHandle)

	_, err = s.Remove(h)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestSlab_ZeroHandleInvalid(t *testing.T) {
	s := NewSlab[int]()
	s.Insert(1)

	_, err := s.Get(0)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestSlab_StaleHandleAfterReuse(t *testing.T) {
	s := NewSlab[int]()

	h1 := s.Insert(1)
	_, err := s.Remove(h1)
	require.NoError(t, err)

	h2 := s.Insert(2)
	assert.Equal(t, h1.index(), h2.index(), "slot should be reused")
	assert.NotEqual(t, h1, h2)

	_, err = s.Get(h1)
	assert.ErrorIs(t, err, ErrInvalidHandle)

	v, err := s.Get(h2)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSlab_OutOfRange(t *testing.T) {
	s := NewSlab[int]()
	_, err := s.Get(makeHandle(10, 1))
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestSlab_ConcurrentInsertRemove(t *testing.T) {
	s := NewSlab[int]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := s.Insert(i*1000 + j)
				v, err := s.Get(h)
				assert.NoError(t, err)
				assert.Equal(t, i*1000+j, v)
				_, err = s.Remove(h)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, s.Len())
}
