package memvec

import (
	"time"

	"github.com/AINative-Studio/memvec/metadata"
)

// Record is a stored embedding plus its provenance.
//
// A record belongs to exactly one (project, namespace) pair for its lifetime;
// moving it requires delete and recreate. The embedding length is fixed at
// write time and is the record's dimensionality.
type Record struct {
	ID        string            `json:"vector_id"`
	Namespace string            `json:"namespace"`
	Embedding []float32         `json:"embedding"`
	Document  string            `json:"document"`
	Metadata  metadata.Document `json:"metadata,omitempty"`
	Model     string            `json:"model"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Dimensions returns the record's dimensionality.
func (r *Record) Dimensions() int { return len(r.Embedding) }

// UpsertRequest describes a write.
type UpsertRequest struct {
	// Project is the tenant key. It is opaque to the store.
	Project string

	// Namespace is validated and normalized; empty means DefaultNamespace.
	Namespace string

	// ID is the caller-supplied vector ID; generated when empty.
	ID string

	// Embedding must be non-empty and of nonzero magnitude.
	Embedding []float32

	// Document is the original text payload, opaque to the store.
	Document string

	// Metadata is optional record metadata used by search filters.
	Metadata metadata.Document

	// Model identifies the embedding model, stored for provenance only.
	Model string

	// Upsert controls collision behavior: when false an existing ID is a
	// conflict, when true the record's mutable fields are replaced and
	// CreatedAt is preserved.
	Upsert bool
}

// UpsertResult reports the outcome of an upsert.
type UpsertResult struct {
	ID        string    `json:"vector_id"`
	Namespace string    `json:"namespace"`
	Created   bool      `json:"created"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultTopK is the result limit used when SearchQuery.TopK is not positive.
const DefaultTopK = 10

// SearchQuery describes a similarity search.
type SearchQuery struct {
	Project   string
	Namespace string

	// Embedding is the query vector.
	Embedding []float32

	// TopK caps the number of results; DefaultTopK when not positive.
	// Range enforcement beyond that is the API layer's concern.
	TopK int

	// Threshold is the minimum normalized similarity score, inclusive.
	Threshold float32

	// Filter is a raw metadata filter expression; see package metadata.
	// It is validated before any record is scored.
	Filter map[string]any

	// IncludeMetadata and IncludeEmbeddings control response payload size.
	// Omitted fields are absent from results entirely, not null-valued.
	IncludeMetadata   bool
	IncludeEmbeddings bool
}

// SearchResult is one ranked match.
type SearchResult struct {
	ID        string         `json:"vector_id"`
	Score     float32        `json:"score"`
	Document  string         `json:"document"`
	Model     string         `json:"model"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SearchResponse is an ordered result list. An empty list is a successful
// response, never an error.
type SearchResponse struct {
	Results   []SearchResult `json:"results"`
	Total     int            `json:"total"`
	Namespace string         `json:"namespace"`
}

// NamespaceStats reports per-namespace vector counts.
//
// Exists is derived from membership: a namespace exists once it holds at
// least one vector. The default namespace always exists.
type NamespaceStats struct {
	Namespace   string `json:"namespace"`
	VectorCount int    `json:"vector_count"`
	Exists      bool   `json:"exists"`
}
