// Package index provides an inverted index that accelerates metadata
// filtering for common equality and membership queries.
//
// Posting lists are Roaring bitmaps keyed by field name and stable value
// key. The index is an internal optimization: filters it cannot compile
// fall back to scanning with metadata.FilterSet, producing identical
// results either way.
package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/AINative-Studio/memvec/metadata"
)

// InvertedIndex maps field/value pairs to bitmap posting lists of row IDs.
//
// Supported operators for compilation:
//   - OpEqual
//   - OpIn (array of Values)
//
// Only non-null, non-numeric operands compile; see compilable. Everything
// else falls back to scanning + evaluating metadata.FilterSet.
type InvertedIndex struct {
	mu sync.RWMutex

	// key -> valueKey -> posting list
	fields map[string]map[string]*roaring.Bitmap
}

// New creates an empty inverted index.
func New() *InvertedIndex {
	return &InvertedIndex{fields: make(map[string]map[string]*roaring.Bitmap)}
}

// Add indexes the document's fields under the given row ID.
// Array-valued fields are additionally indexed per element so that OpIn
// intersection queries hit the posting lists directly.
func (ix *InvertedIndex) Add(id uint32, doc metadata.Document) {
	if ix == nil || doc == nil {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.addLocked(id, doc)
}

// Remove drops the row ID from the posting lists of the document's fields.
func (ix *InvertedIndex) Remove(id uint32, doc metadata.Document) {
	if ix == nil || doc == nil {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id, doc)
}

// Update replaces the indexed document for a row ID.
func (ix *InvertedIndex) Update(id uint32, oldDoc, newDoc metadata.Document) {
	if ix == nil {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if oldDoc != nil {
		ix.removeLocked(id, oldDoc)
	}
	if newDoc != nil {
		ix.addLocked(id, newDoc)
	}
}

func (ix *InvertedIndex) addLocked(id uint32, doc metadata.Document) {
	for k, v := range doc {
		vm, ok := ix.fields[k]
		if !ok {
			vm = make(map[string]*roaring.Bitmap)
			ix.fields[k] = vm
		}
		for _, vk := range valueKeys(v) {
			rb, ok := vm[vk]
			if !ok {
				rb = roaring.New()
				vm[vk] = rb
			}
			rb.Add(id)
		}
	}
}

func (ix *InvertedIndex) removeLocked(id uint32, doc metadata.Document) {
	for k, v := range doc {
		vm, ok := ix.fields[k]
		if !ok {
			continue
		}
		for _, vk := range valueKeys(v) {
			rb, ok := vm[vk]
			if !ok {
				continue
			}
			rb.Remove(id)
			if rb.IsEmpty() {
				delete(vm, vk)
			}
		}
		if len(vm) == 0 {
			delete(ix.fields, k)
		}
	}
}

// elementPrefix separates per-element posting keys from whole-value keys.
// OpEqual must only ever consult whole-value postings, otherwise an equality
// test against a scalar would wrongly match array-valued fields.
const elementPrefix = "e\x1f"

// valueKeys returns the posting keys for a value: the whole value, plus one
// prefixed key per element for arrays.
func valueKeys(v metadata.Value) []string {
	keys := []string{v.Key()}
	if arr, ok := v.AsArray(); ok {
		for _, elem := range arr {
			keys = append(keys, elementPrefix+elem.Key())
		}
	}
	return keys
}

// Compile attempts to compile a FilterSet into a fast membership test using
// the inverted index. If compilation is not possible, ok=false and the caller
// must evaluate the FilterSet directly.
func (ix *InvertedIndex) Compile(fs *metadata.FilterSet) (fn func(id uint32) bool, ok bool) {
	if ix == nil || fs == nil || len(fs.Filters) == 0 {
		return nil, false
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var acc *roaring.Bitmap

	for _, f := range fs.Filters {
		var postings *roaring.Bitmap

		switch f.Operator {
		case metadata.OpEqual:
			if !compilable(f.Value) {
				return nil, false
			}
			postings = ix.postingsLocked(f.Key, f.Value)

		case metadata.OpIn:
			arr, isArr := f.Value.AsArray()
			if !isArr {
				return nil, false
			}
			// Membership matches stored scalars equal to an operand element
			// as well as stored arrays containing one.
			lists := make([]*roaring.Bitmap, 0, 2*len(arr))
			for _, vv := range arr {
				if !compilable(vv) {
					return nil, false
				}
				if rb := ix.postingsLocked(f.Key, vv); rb != nil {
					lists = append(lists, rb)
				}
				if rb := ix.rawPostingsLocked(f.Key, elementPrefix+vv.Key()); rb != nil {
					lists = append(lists, rb)
				}
			}
			postings = roaring.FastOr(lists...)

		default:
			return nil, false
		}

		if postings == nil || postings.IsEmpty() {
			// Key/value doesn't exist; fast path to always-false.
			return func(uint32) bool { return false }, true
		}

		if acc == nil {
			acc = postings.Clone()
			continue
		}
		acc.And(postings)
		if acc.IsEmpty() {
			return func(uint32) bool { return false }, true
		}
	}

	if acc == nil {
		return nil, false
	}
	return acc.Contains, true
}

// compilable reports whether an equality operand can be answered from
// posting lists alone. A null operand also matches documents missing the
// field, and numeric operands compare across kinds (Int(5) equals
// Float(5.0)), neither of which the kind-tagged posting keys can express.
// Both fall back to scanning. Arrays are checked elementwise: whole-array
// equality compares numerics across kinds too.
func compilable(v metadata.Value) bool {
	if v.Kind == metadata.KindNull || v.IsNumber() {
		return false
	}
	if arr, ok := v.AsArray(); ok {
		for _, elem := range arr {
			if !compilable(elem) {
				return false
			}
		}
	}
	return true
}

func (ix *InvertedIndex) postingsLocked(key string, v metadata.Value) *roaring.Bitmap {
	return ix.rawPostingsLocked(key, v.Key())
}

func (ix *InvertedIndex) rawPostingsLocked(key, valueKey string) *roaring.Bitmap {
	vm, ok := ix.fields[key]
	if !ok {
		return nil
	}
	return vm[valueKey]
}
