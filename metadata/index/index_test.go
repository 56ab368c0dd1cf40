package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AINative-Studio/memvec/metadata"
)

func TestCompileEqual(t *testing.T) {
	ix := New()
	ix.Add(1, metadata.Document{"category": metadata.String("tech")})
	ix.Add(2, metadata.Document{"category": metadata.String("sports")})
	ix.Add(3, metadata.Document{"category": metadata.String("tech")})

	fs := metadata.NewFilterSet(metadata.Filter{
		Key: "category", Operator: metadata.OpEqual, Value: metadata.String("tech"),
	})

	fn, ok := ix.Compile(fs)
	require.True(t, ok)
	assert.True(t, fn(1))
	assert.False(t, fn(2))
	assert.True(t, fn(3))
}

func TestCompileUnknownValue(t *testing.T) {
	ix := New()
	ix.Add(1, metadata.Document{"category": metadata.String("tech")})

	fs := metadata.NewFilterSet(metadata.Filter{
		Key: "category", Operator: metadata.OpEqual, Value: metadata.String("finance"),
	})

	fn, ok := ix.Compile(fs)
	require.True(t, ok)
	assert.False(t, fn(1))
}

func TestCompileIn(t *testing.T) {
	ix := New()
	ix.Add(1, metadata.Document{"color": metadata.String("red")})
	ix.Add(2, metadata.Document{"color": metadata.String("blue")})
	ix.Add(3, metadata.Document{"color": metadata.String("green")})

	fs := metadata.NewFilterSet(metadata.Filter{
		Key:      "color",
		Operator: metadata.OpIn,
		Value:    metadata.Array([]metadata.Value{metadata.String("red"), metadata.String("green")}),
	})

	fn, ok := ix.Compile(fs)
	require.True(t, ok)
	assert.True(t, fn(1))
	assert.False(t, fn(2))
	assert.True(t, fn(3))
}

func TestCompileInArrayField(t *testing.T) {
	ix := New()
	ix.Add(1, metadata.Document{"tags": metadata.Array([]metadata.Value{metadata.String("x"), metadata.String("y")})})
	ix.Add(2, metadata.Document{"tags": metadata.Array([]metadata.Value{metadata.String("z")})})

	fs := metadata.NewFilterSet(metadata.Filter{
		Key:      "tags",
		Operator: metadata.OpIn,
		Value:    metadata.Array([]metadata.Value{metadata.String("y")}),
	})

	fn, ok := ix.Compile(fs)
	require.True(t, ok)
	assert.True(t, fn(1))
	assert.False(t, fn(2))
}

func TestCompileEqualScalarSkipsArrayField(t *testing.T) {
	// An equality test against a scalar must not match an array field that
	// merely contains the scalar. The index must agree with FilterSet.Matches.
	ix := New()
	doc := metadata.Document{"tags": metadata.Array([]metadata.Value{metadata.String("x")})}
	ix.Add(1, doc)

	fs := metadata.NewFilterSet(metadata.Filter{
		Key: "tags", Operator: metadata.OpEqual, Value: metadata.String("x"),
	})

	fn, ok := ix.Compile(fs)
	require.True(t, ok)
	assert.False(t, fn(1))
	assert.Equal(t, fs.Matches(doc), fn(1))
}

func TestCompileIntersection(t *testing.T) {
	ix := New()
	ix.Add(1, metadata.Document{"a": metadata.String("x"), "b": metadata.String("y")})
	ix.Add(2, metadata.Document{"a": metadata.String("x"), "b": metadata.String("z")})

	fs := metadata.NewFilterSet(
		metadata.Filter{Key: "a", Operator: metadata.OpEqual, Value: metadata.String("x")},
		metadata.Filter{Key: "b", Operator: metadata.OpEqual, Value: metadata.String("y")},
	)

	fn, ok := ix.Compile(fs)
	require.True(t, ok)
	assert.True(t, fn(1))
	assert.False(t, fn(2))
}

func TestCompileFallbacks(t *testing.T) {
	ix := New()
	ix.Add(1, metadata.Document{"score": metadata.Int(5)})

	t.Run("unsupported operator", func(t *testing.T) {
		fs := metadata.NewFilterSet(metadata.Filter{
			Key: "score", Operator: metadata.OpGreaterThan, Value: metadata.Int(3),
		})
		_, ok := ix.Compile(fs)
		assert.False(t, ok)
	})

	t.Run("null equality", func(t *testing.T) {
		fs := metadata.NewFilterSet(metadata.Filter{
			Key: "missing", Operator: metadata.OpEqual, Value: metadata.Null(),
		})
		_, ok := ix.Compile(fs)
		assert.False(t, ok)
	})

	t.Run("numeric equality", func(t *testing.T) {
		// Numeric equality is cross-kind (Int(5) equals Float(5.0)), which
		// kind-tagged posting keys cannot answer. Must agree with the scan path.
		fs := metadata.NewFilterSet(metadata.Filter{
			Key: "score", Operator: metadata.OpEqual, Value: metadata.Float(5),
		})
		_, ok := ix.Compile(fs)
		assert.False(t, ok)
		assert.True(t, fs.Matches(metadata.Document{"score": metadata.Int(5)}))
	})

	t.Run("numeric membership", func(t *testing.T) {
		fs := metadata.NewFilterSet(metadata.Filter{
			Key:      "score",
			Operator: metadata.OpIn,
			Value:    metadata.Array([]metadata.Value{metadata.Float(5)}),
		})
		_, ok := ix.Compile(fs)
		assert.False(t, ok)
		assert.True(t, fs.Matches(metadata.Document{"score": metadata.Int(5)}))
	})

	t.Run("array equality with numeric elements", func(t *testing.T) {
		fs := metadata.NewFilterSet(metadata.Filter{
			Key:      "scores",
			Operator: metadata.OpEqual,
			Value:    metadata.Array([]metadata.Value{metadata.Float(5)}),
		})
		_, ok := ix.Compile(fs)
		assert.False(t, ok)
		assert.True(t, fs.Matches(metadata.Document{"scores": metadata.Array([]metadata.Value{metadata.Int(5)})}))
	})

	t.Run("nil filter set", func(t *testing.T) {
		_, ok := ix.Compile(nil)
		assert.False(t, ok)
	})
}

func TestRemoveAndUpdate(t *testing.T) {
	ix := New()
	oldDoc := metadata.Document{"category": metadata.String("tech")}
	newDoc := metadata.Document{"category": metadata.String("sports")}

	ix.Add(1, oldDoc)
	ix.Update(1, oldDoc, newDoc)

	fs := metadata.NewFilterSet(metadata.Filter{
		Key: "category", Operator: metadata.OpEqual, Value: metadata.String("tech"),
	})
	fn, ok := ix.Compile(fs)
	require.True(t, ok)
	assert.False(t, fn(1))

	ix.Remove(1, newDoc)
	fs = metadata.NewFilterSet(metadata.Filter{
		Key: "category", Operator: metadata.OpEqual, Value: metadata.String("sports"),
	})
	fn, ok = ix.Compile(fs)
	require.True(t, ok)
	assert.False(t, fn(1))
}
