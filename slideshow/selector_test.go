package slideshow

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_SequentialForwardFromMiddle(t *testing.T) {
	sel := NewSelector(newMemPhotos(5))

	_, err := sel.Select("p2.jpg", OrderSequential)
	require.NoError(t, err)

	got, err := sel.Next(Forward, OrderSequential)
	require.NoError(t, err)
	assert.Equal(t, "p3.jpg", got.Ref.ID)

	cur, ok := sel.Current()
	require.True(t, ok)
	assert.Equal(t, "p3.jpg", cur.ID)
}

func TestSelector_SequentialWrapsBothWays(t *testing.T) {
	sel := NewSelector(newMemPhotos(5))

	_, err := sel.Select("p0.jpg", OrderSequential)
	require.NoError(t, err)
	got, err := sel.Next(Backward, OrderSequential)
	require.NoError(t, err)
	assert.Equal(t, "p4.jpg", got.Ref.ID)

	got, err = sel.Next(Forward, OrderSequential)
	require.NoError(t, err)
	assert.Equal(t, "p0.jpg", got.Ref.ID)
}

func TestSelector_SequentialWithoutHistory(t *testing.T) {
	got, err := NewSelector(newMemPhotos(5)).Next(Forward, OrderSequential)
	require.NoError(t, err)
	assert.Equal(t, "p0.jpg", got.Ref.ID)

	got, err = NewSelector(newMemPhotos(5)).Next(Backward, OrderSequential)
	require.NoError(t, err)
	assert.Equal(t, "p4.jpg", got.Ref.ID)
}

func TestSelector_SequentialRemovedPhotoFallsBackToStart(t *testing.T) {
	photos := newMemPhotos(5)
	sel := NewSelector(photos)

	_, err := sel.Select("p3.jpg", OrderSequential)
	require.NoError(t, err)
	photos.remove("p3.jpg")

	got, err := sel.Next(Forward, OrderSequential)
	require.NoError(t, err)
	assert.Equal(t, "p0.jpg", got.Ref.ID)

	got, err = sel.Next(Forward, OrderSequential)
	require.NoError(t, err)
	assert.Equal(t, "p1.jpg", got.Ref.ID)
}

func TestSelector_RandomNeverRepeats(t *testing.T) {
	for _, n := range []int{2, 3, 10} {
		sel := NewSelector(newMemPhotos(n)).WithRand(rand.New(rand.NewPCG(1, uint64(n))))

		prev := ""
		for i := range 1000 {
			got, err := sel.Next(Forward, OrderRandom)
			require.NoError(t, err)
			require.NotEqual(t, prev, got.Ref.ID, "repeat at draw %d with %d photos", i, n)
			prev = got.Ref.ID
		}
	}
}

func TestSelector_RandomIgnoresDirection(t *testing.T) {
	sel := NewSelector(newMemPhotos(2))

	first, err := sel.Next(Backward, OrderRandom)
	require.NoError(t, err)
	second, err := sel.Next(Backward, OrderRandom)
	require.NoError(t, err)
	third, err := sel.Next(Forward, OrderRandom)
	require.NoError(t, err)

	assert.NotEqual(t, first.Ref.ID, second.Ref.ID)
	assert.NotEqual(t, second.Ref.ID, third.Ref.ID)
}

func TestSelector_RandomCoversCatalog(t *testing.T) {
	sel := NewSelector(newMemPhotos(4)).WithRand(rand.New(rand.NewPCG(7, 7)))

	seen := map[string]bool{}
	for range 200 {
		got, err := sel.Next(Forward, OrderRandom)
		require.NoError(t, err)
		seen[got.Ref.ID] = true
	}
	assert.Len(t, seen, 4)
}

func TestSelector_SinglePhotoRepeats(t *testing.T) {
	sel := NewSelector(newMemPhotos(1))

	for _, mode := range []OrderMode{OrderRandom, OrderSequential} {
		for range 5 {
			got, err := sel.Next(Forward, mode)
			require.NoError(t, err)
			assert.Equal(t, "p0.jpg", got.Ref.ID)
		}
	}
}

func TestSelector_EmptyCatalog(t *testing.T) {
	sel := NewSelector(newMemPhotos(0))

	_, err := sel.Next(Forward, OrderRandom)
	assert.ErrorIs(t, err, ErrNoPhotos)
	_, err = sel.Next(Backward, OrderSequential)
	assert.ErrorIs(t, err, ErrNoPhotos)
	_, err = sel.Select("p0.jpg", OrderRandom)
	assert.ErrorIs(t, err, ErrNoPhotos)

	_, ok := sel.Current()
	assert.False(t, ok)
}

func TestSelector_SelectUnknown(t *testing.T) {
	sel := NewSelector(newMemPhotos(3))

	_, err := sel.Select("missing.jpg", OrderRandom)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestSelector_SelectExcludedFromNextRandomDraw(t *testing.T) {
	sel := NewSelector(newMemPhotos(2))

	for range 50 {
		_, err := sel.Select("p1.jpg", OrderRandom)
		require.NoError(t, err)
		got, err := sel.Next(Forward, OrderRandom)
		require.NoError(t, err)
		assert.Equal(t, "p0.jpg", got.Ref.ID)
	}
}

func TestSelector_Restore(t *testing.T) {
	sel := NewSelector(newMemPhotos(5))

	_, err := sel.Select("p1.jpg", OrderSequential)
	require.NoError(t, err)
	next, err := sel.Next(Forward, OrderSequential)
	require.NoError(t, err)

	sel.restore(next)
	cur, ok := sel.Current()
	require.True(t, ok)
	assert.Equal(t, "p1.jpg", cur.ID)
}

func TestSelector_SourceError(t *testing.T) {
	photos := newMemPhotos(3)
	photos.err = errors.New("disk gone")
	sel := NewSelector(photos)

	_, err := sel.Next(Forward, OrderRandom)
	assert.ErrorContains(t, err, "disk gone")

	_, err = sel.Count()
	assert.Error(t, err)
}
