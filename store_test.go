package memvec

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AINative-Studio/memvec/metadata"
)

func newTestStore(t *testing.T, optFns ...func(o *Options)) *Store {
	t.Helper()
	s, err := New(optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("create with explicit ID", func(t *testing.T) {
		s := newTestStore(t)

		res, err := s.Upsert(ctx, UpsertRequest{
			Project:   "p1",
			Namespace: "notes",
			ID:        "v1",
			Embedding: []float32{1, 0},
			Document:  "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, "v1", res.ID)
		assert.Equal(t, "notes", res.Namespace)
		assert.True(t, res.Created)
		assert.False(t, res.CreatedAt.IsZero())
		assert.Equal(t, res.CreatedAt, res.UpdatedAt)
	})

	t.Run("create with generated ID", func(t *testing.T) {
		n := 0
		s := newTestStore(t, WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		}))

		res, err := s.Upsert(ctx, UpsertRequest{Embedding: []float32{1, 0}})
		require.NoError(t, err)
		assert.Equal(t, "gen-1", res.ID)
		assert.Equal(t, DefaultNamespace, res.Namespace)
	})

	t.Run("generated ID retries on collision", func(t *testing.T) {
		ids := []string{"dup", "dup", "fresh"}
		s := newTestStore(t, WithIDGenerator(func() string {
			id := ids[0]
			if len(ids) > 1 {
				ids = ids[1:]
			}
			return id
		}))

		_, err := s.Upsert(ctx, UpsertRequest{ID: "dup", Embedding: []float32{1, 0}})
		require.NoError(t, err)

		res, err := s.Upsert(ctx, UpsertRequest{Embedding: []float32{0, 1}})
		require.NoError(t, err)
		assert.Equal(t, "fresh", res.ID)
	})

	t.Run("duplicate ID without upsert is a conflict", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.Upsert(ctx, UpsertRequest{ID: "v1", Embedding: []float32{1, 0}})
		require.NoError(t, err)

		_, err = s.Upsert(ctx, UpsertRequest{ID: "v1", Embedding: []float32{0, 1}})
		var dupErr *DuplicateIDError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "v1", dupErr.ID)
		assert.Equal(t, DefaultNamespace, dupErr.Namespace)

		// The conflict must leave the existing record untouched.
		rec, err := s.Get(ctx, "", "", "v1")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, rec.Embedding)
	})

	t.Run("upsert replaces and preserves CreatedAt", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		s := newTestStore(t, WithClock(func() time.Time { return now }))

		first, err := s.Upsert(ctx, UpsertRequest{
			ID:        "v1",
			Embedding: []float32{1, 0},
			Document:  "old",
			Metadata:  metadata.Document{"rev": metadata.Int(1)},
		})
		require.NoError(t, err)

		now = now.Add(time.Hour)
		second, err := s.Upsert(ctx, UpsertRequest{
			ID:        "v1",
			Embedding: []float32{0, 1},
			Document:  "new",
			Metadata:  metadata.Document{"rev": metadata.Int(2)},
			Upsert:    true,
		})
		require.NoError(t, err)
		assert.False(t, second.Created)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
		assert.Equal(t, second.CreatedAt.Add(time.Hour), second.UpdatedAt)

		rec, err := s.Get(ctx, "", "", "v1")
		require.NoError(t, err)
		assert.Equal(t, "new", rec.Document)
		assert.Equal(t, []float32{0, 1}, rec.Embedding)
		assert.Equal(t, metadata.Int(2), rec.Metadata["rev"])
	})

	t.Run("same ID in different namespaces does not conflict", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.Upsert(ctx, UpsertRequest{Namespace: "a", ID: "v1", Embedding: []float32{1, 0}})
		require.NoError(t, err)
		_, err = s.Upsert(ctx, UpsertRequest{Namespace: "b", ID: "v1", Embedding: []float32{1, 0}})
		require.NoError(t, err)
	})

	t.Run("invalid namespace", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.Upsert(ctx, UpsertRequest{Namespace: "_nope", Embedding: []float32{1, 0}})
		var nsErr *NamespaceError
		require.ErrorAs(t, err, &nsErr)
	})

	t.Run("empty embedding", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.Upsert(ctx, UpsertRequest{ID: "v1"})
		require.ErrorIs(t, err, ErrEmptyVector)
	})

	t.Run("zero magnitude embedding", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.Upsert(ctx, UpsertRequest{ID: "v1", Embedding: []float32{0, 0, 0}})
		require.ErrorIs(t, err, ErrZeroVector)
	})

	t.Run("stored embedding is a copy", func(t *testing.T) {
		s := newTestStore(t)

		emb := []float32{1, 0}
		_, err := s.Upsert(ctx, UpsertRequest{ID: "v1", Embedding: emb})
		require.NoError(t, err)

		emb[0] = 99
		rec, err := s.Get(ctx, "", "", "v1")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, rec.Embedding)
	})
}

func TestStoreGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Upsert(ctx, UpsertRequest{
		Project:   "p1",
		Namespace: "notes",
		ID:        "v1",
		Embedding: []float32{1, 0},
		Document:  "hello",
		Model:     "text-embedding-3-small",
	})
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		rec, err := s.Get(ctx, "p1", "notes", "v1")
		require.NoError(t, err)
		assert.Equal(t, "v1", rec.ID)
		assert.Equal(t, "notes", rec.Namespace)
		assert.Equal(t, "hello", rec.Document)
		assert.Equal(t, "text-embedding-3-small", rec.Model)
		assert.Equal(t, 2, rec.Dimensions())
	})

	t.Run("namespace scoped", func(t *testing.T) {
		_, err := s.Get(ctx, "p1", "other", "v1")
		require.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, "p1", "", "v1")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("project scoped", func(t *testing.T) {
		_, err := s.Get(ctx, "p2", "notes", "v1")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		rec, err := s.Get(ctx, "p1", "notes", "v1")
		require.NoError(t, err)
		rec.Embedding[0] = 42
		rec.Document = "mutated"

		again, err := s.Get(ctx, "p1", "notes", "v1")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, again.Embedding)
		assert.Equal(t, "hello", again.Document)
	})
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Upsert(ctx, UpsertRequest{Namespace: "notes", ID: "v1", Embedding: []float32{1, 0}})
	require.NoError(t, err)

	t.Run("wrong namespace is a no-op", func(t *testing.T) {
		deleted, err := s.Delete(ctx, "", "other", "v1")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		deleted, err := s.Delete(ctx, "", "notes", "v1")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = s.Get(ctx, "", "notes", "v1")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleting again is a no-op", func(t *testing.T) {
		deleted, err := s.Delete(ctx, "", "notes", "v1")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("namespace disappears with its last vector", func(t *testing.T) {
		stats, err := s.Stats(ctx, "", "notes")
		require.NoError(t, err)
		assert.False(t, stats.Exists)
		assert.Zero(t, stats.VectorCount)
	})
}

func TestStoreStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("default namespace always exists", func(t *testing.T) {
		stats, err := s.Stats(ctx, "p1", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultNamespace, stats.Namespace)
		assert.True(t, stats.Exists)
		assert.Zero(t, stats.VectorCount)
	})

	t.Run("unknown namespace does not exist", func(t *testing.T) {
		stats, err := s.Stats(ctx, "p1", "ghost")
		require.NoError(t, err)
		assert.False(t, stats.Exists)
		assert.Zero(t, stats.VectorCount)
	})

	t.Run("counts per namespace", func(t *testing.T) {
		for i := range 3 {
			_, err := s.Upsert(ctx, UpsertRequest{
				Project:   "p1",
				Namespace: "notes",
				ID:        fmt.Sprintf("v%d", i),
				Embedding: []float32{1, float32(i)},
			})
			require.NoError(t, err)
		}

		stats, err := s.Stats(ctx, "p1", "notes")
		require.NoError(t, err)
		assert.True(t, stats.Exists)
		assert.Equal(t, 3, stats.VectorCount)
	})
}

func TestStoreListNamespaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	names, err := s.ListNamespaces(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultNamespace}, names)

	for _, ns := range []string{"zebra", "alpha", ""} {
		_, err := s.Upsert(ctx, UpsertRequest{Project: "p1", Namespace: ns, Embedding: []float32{1, 0}})
		require.NoError(t, err)
	}
	_, err = s.Upsert(ctx, UpsertRequest{Project: "p2", Namespace: "elsewhere", Embedding: []float32{1, 0}})
	require.NoError(t, err)

	names, err = s.ListNamespaces(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "default", "zebra"}, names)
}

func TestStoreSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("seed records are queryable", func(t *testing.T) {
		s := newTestStore(t, WithSeed(
			UpsertRequest{Namespace: "notes", ID: "s1", Embedding: []float32{1, 0}, Document: "seeded"},
			UpsertRequest{Namespace: "notes", ID: "s2", Embedding: []float32{0, 1}},
		))

		rec, err := s.Get(ctx, "", "notes", "s1")
		require.NoError(t, err)
		assert.Equal(t, "seeded", rec.Document)

		stats, err := s.Stats(ctx, "", "notes")
		require.NoError(t, err)
		assert.Equal(t, 2, stats.VectorCount)
	})

	t.Run("invalid seed fails construction", func(t *testing.T) {
		_, err := New(WithSeed(UpsertRequest{ID: "bad", Embedding: nil}))
		require.ErrorIs(t, err, ErrEmptyVector)
	})
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, proj := range []string{"p1", "p2"} {
		_, err := s.Upsert(ctx, UpsertRequest{Project: proj, ID: "v1", Embedding: []float32{1, 0}})
		require.NoError(t, err)
	}

	s.ClearProject("p1")
	_, err := s.Get(ctx, "p1", "", "v1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "p2", "", "v1")
	require.NoError(t, err)

	s.Clear()
	_, err = s.Get(ctx, "p2", "", "v1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	s, err := New()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Upsert(ctx, UpsertRequest{ID: "v1", Embedding: []float32{1, 0}})
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Get(ctx, "", "", "v1")
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Delete(ctx, "", "", "v1")
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Search(ctx, SearchQuery{Embedding: []float32{1, 0}})
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Stats(ctx, "", "")
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.ListNamespaces(ctx, "")
	require.ErrorIs(t, err, ErrClosed)
}

func TestStoreContextCancellation(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Upsert(ctx, UpsertRequest{ID: "v1", Embedding: []float32{1, 0}})
	require.ErrorIs(t, err, context.Canceled)
	_, err = s.Search(ctx, SearchQuery{Embedding: []float32{1, 0}})
	require.ErrorIs(t, err, context.Canceled)
}
