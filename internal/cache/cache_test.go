package cache

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkarev/suntrack/internal/domain"
)

func TestKeys(t *testing.T) {
	require.Equal(t, "place:7", EntityKey(KindPlace, 7))
	require.Equal(t, "astro:all", AllKey(KindAstroRecord))
	require.Equal(t, "astro:by-relation:3", ByRelationKey(KindAstroRecord, 3))
	require.Equal(t, "astro:by-date-name:2025-06-04:Paris", ByDateNameKey(KindAstroRecord, "2025-06-04", "Paris"))
}

func TestEntityStore(t *testing.T) {
	s := NewEntityStore[domain.Place]()
	key := EntityKey(KindPlace, 1)

	_, ok := s.Get(key)
	require.False(t, ok)
	require.False(t, s.Has(key))

	s.Set(key, domain.Place{ID: 1, Name: "Paris"})
	got, ok := s.Get(key)
	require.True(t, ok)
	require.Equal(t, "Paris", got.Name)
	require.True(t, s.Has(key))
	require.Equal(t, 1, s.Len())

	s.Set(key, domain.Place{ID: 1, Name: "Paris", Country: "France"})
	got, _ = s.Get(key)
	require.Equal(t, "France", got.Country)

	s.Remove(key)
	require.False(t, s.Has(key))
	require.Equal(t, 0, s.Len())
}

func TestEntityStoreConcurrent(t *testing.T) {
	s := NewEntityStore[domain.Place]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := EntityKey(KindPlace, j%10)
				s.Set(key, domain.Place{ID: j % 10, Name: strconv.Itoa(n)})
				if p, ok := s.Get(key); ok {
					// A read must never observe a half-applied write.
					require.Equal(t, key, EntityKey(KindPlace, p.ID))
				}
				if j%7 == 0 {
					s.Remove(key)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestCollectionStore(t *testing.T) {
	s, err := NewCollectionStore[domain.Place](2)
	require.NoError(t, err)

	all := AllKey(KindPlace)
	s.Set(all, []domain.Place{{ID: 1}, {ID: 2}})
	got, ok := s.Get(all)
	require.True(t, ok)
	require.Len(t, got, 2)

	s.Remove(all)
	_, ok = s.Get(all)
	require.False(t, ok)
}

func TestCollectionStoreEvictsOldest(t *testing.T) {
	s, err := NewCollectionStore[domain.Place](2)
	require.NoError(t, err)

	s.Set(ByRelationKey(KindPlace, 1), []domain.Place{{ID: 1}})
	s.Set(ByRelationKey(KindPlace, 2), []domain.Place{{ID: 2}})
	s.Set(ByRelationKey(KindPlace, 3), []domain.Place{{ID: 3}})

	require.False(t, s.Has(ByRelationKey(KindPlace, 1)))
	require.True(t, s.Has(ByRelationKey(KindPlace, 2)))
	require.True(t, s.Has(ByRelationKey(KindPlace, 3)))
}

func TestCachesNew(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	require.NotNil(t, c.Places)
	require.NotNil(t, c.PlaceLists)
	require.NotNil(t, c.Records)
	require.NotNil(t, c.RecordLists)

	_, err = New(0)
	require.Error(t, err)
}
