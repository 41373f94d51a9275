package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/indiancoinstore/coinstore-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "indianCoinCart:test"

func newPersistedStore(t *testing.T, st storage.Storage, opts ...PersisterOption) (*Store, *Persister) {
	t.Helper()
	opts = append([]PersisterOption{WithPersisterLogger(quietLogger())}, opts...)
	p := NewPersister(st, testKey, opts...)
	t.Cleanup(p.Close)
	return NewStore(WithLogger(quietLogger()), WithPersister(p)), p
}

func savedItems(t *testing.T, st storage.Storage) []LineItem {
	t.Helper()
	data, err := st.Get(context.Background(), testKey)
	require.NoError(t, err)
	items, err := DecodeItems(data)
	require.NoError(t, err)
	return items
}

func TestPersister_RoundTripAcrossRestart(t *testing.T) {
	st := storage.NewMemoryStorage()

	s, p := newPersistedStore(t, st)
	s.Hydrate(context.Background())
	require.NoError(t, s.AddItem(coin("A", 100), 2))
	require.NoError(t, s.AddItem(coin("B", 50), 1))
	require.NoError(t, s.AddItem(coin("C", 75), 4))
	s.RemoveItem("B")
	p.Flush()
	original := s.Items()

	restarted, _ := newPersistedStore(t, st)
	restarted.Hydrate(context.Background())

	assert.Equal(t, original, restarted.Items())
}

func TestPersister_NoWritesWhileHydrating(t *testing.T) {
	st := storage.NewMemoryStorage()
	s, p := newPersistedStore(t, st)

	require.NoError(t, s.AddItem(coin("A", 100), 1))
	p.Flush()
	assert.Equal(t, 0, st.Len())

	s.Hydrate(context.Background())
	p.Flush()
	assert.Equal(t, []string{"A"}, ids(State{Items: savedItems(t, st)}))
}

func TestPersister_HydrationDoesNotClobberSavedCart(t *testing.T) {
	st := storage.NewMemoryStorage()
	saved, _ := json.Marshal([]LineItem{{Product: coin("A", 100), Quantity: 3}})
	require.NoError(t, st.Set(context.Background(), testKey, saved))

	s, p := newPersistedStore(t, st)
	s.Hydrate(context.Background())
	p.Flush()

	assert.Equal(t, 3, s.QuantityOf("A"))
	assert.Equal(t, 3, State{Items: savedItems(t, st)}.QuantityOf("A"))
}

func TestPersister_MalformedRecordIsPurged(t *testing.T) {
	records := []string{
		`{not json`,
		`{"items":[]}`,
		`"indianCoinCart"`,
		`null`,
		`[1,2,3]`,
		``,
	}
	for _, raw := range records {
		t.Run(raw, func(t *testing.T) {
			st := storage.NewMemoryStorage()
			require.NoError(t, st.Set(context.Background(), testKey, []byte(raw)))

			var failures []string
			s, _ := newPersistedStore(t, st, WithFailureHook(func(op string, _ error) { failures = append(failures, op) }))
			assert.NotPanics(t, func() { s.Hydrate(context.Background()) })

			assert.Empty(t, s.Items())
			assert.Equal(t, PhaseReady, s.Phase())
			assert.Empty(t, failures)
		})
	}
}

func TestPersister_MalformedRecordRemovedFromStorage(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(context.Background(), testKey, []byte(`{broken`)))
	p := NewPersister(st, testKey, WithPersisterLogger(quietLogger()))
	defer p.Close()

	items, err := p.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, items)

	_, err = st.Get(context.Background(), testKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPersister_WriteFailureKeepsCartInMemory(t *testing.T) {
	st := storage.NewMemoryStorage()
	var mu sync.Mutex
	var failures []string
	s, p := newPersistedStore(t, st, WithFailureHook(func(op string, _ error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, op)
	}))
	s.Hydrate(context.Background())
	p.Flush()

	st.FailWith("set", errors.New("quota exceeded"))
	require.NoError(t, s.AddItem(coin("A", 100), 2))
	p.Flush()

	assert.Equal(t, 2, s.QuantityOf("A"))
	mu.Lock()
	assert.Contains(t, failures, "write")
	mu.Unlock()

	// the next successful write catches storage up
	st.FailWith("set", nil)
	s.IncrementQuantity("A")
	p.Flush()
	assert.Equal(t, 3, State{Items: savedItems(t, st)}.QuantityOf("A"))
}

func TestPersister_ReadFailureKeepsRecord(t *testing.T) {
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(context.Background(), testKey, []byte(`[]`)))
	st.FailWith("get", errors.New("connection refused"))

	p := NewPersister(st, testKey, WithPersisterLogger(quietLogger()))
	defer p.Close()

	_, err := p.Load(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestPersister_ClearWritesEmptyArray(t *testing.T) {
	st := storage.NewMemoryStorage()
	s, p := newPersistedStore(t, st)
	s.Hydrate(context.Background())
	require.NoError(t, s.AddItem(coin("A", 100), 1))
	s.Clear()
	p.Flush()

	data, err := st.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestPersister_CloseFlushesAndStopsWriting(t *testing.T) {
	st := storage.NewMemoryStorage()
	p := NewPersister(st, testKey, WithPersisterLogger(quietLogger()))
	s := NewStore(WithLogger(quietLogger()), WithPersister(p))
	s.Hydrate(context.Background())

	for i := 0; i < 20; i++ {
		require.NoError(t, s.AddItem(coin("A", 1), 1))
	}
	p.Close()
	p.Close()
	assert.Equal(t, 10, State{Items: savedItems(t, st)}.QuantityOf("A"))

	require.NoError(t, s.AddItem(coin("B", 1), 1))
	p.Flush()
	assert.False(t, State{Items: savedItems(t, st)}.Contains("B"))
}

func TestPersister_JSONShape(t *testing.T) {
	st := storage.NewMemoryStorage()
	s, p := newPersistedStore(t, st)
	s.Hydrate(context.Background())
	require.NoError(t, s.AddItem(coin("A", 100), 2))
	p.Flush()

	data, err := st.Get(context.Background(), testKey)
	require.NoError(t, err)
	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "A", raw[0]["id"])
	assert.Equal(t, 2.0, raw[0]["quantity"])
	assert.Equal(t, 100.0, raw[0]["price"])
	assert.Equal(t, "Mughal Empire", raw[0]["period"])
}
