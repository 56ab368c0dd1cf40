package memvec

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/AINative-Studio/memvec/distance"
	"github.com/AINative-Studio/memvec/metadata"
	"github.com/AINative-Studio/memvec/metadata/index"
)

// Store is a multi-tenant, namespace-partitioned vector store.
//
// The project is the outermost partition key and is enforced before any
// namespace logic runs; one project's collections are invisible to every
// other project. Within a project, namespaces come into existence on first
// insert and disappear when their last vector is removed.
//
// All methods are safe for concurrent use. The store provides no optimistic
// concurrency control: concurrent upsert and delete of the same vector ID
// need external mutual exclusion.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*project
	closed   bool

	opts   Options
	logger *Logger
}

type project struct {
	namespaces map[string]*partition
}

// partition holds one namespace's records.
//
// order preserves insertion order, which is the documented tie-break for
// equal similarity scores. rows assigns each record a dense row ID used by
// the inverted index.
type partition struct {
	records map[string]*Record
	order   []string
	rows    map[string]uint32
	nextRow uint32
	index   *index.InvertedIndex
}

func newPartition(indexing bool) *partition {
	p := &partition{
		records: make(map[string]*Record),
		rows:    make(map[string]uint32),
	}
	if indexing {
		p.index = index.New()
	}
	return p
}

// New creates a new Store.
func New(optFns ...func(o *Options)) (*Store, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = DefaultOptions.IDGenerator
	}
	if opts.Clock == nil {
		opts.Clock = DefaultOptions.Clock
	}

	s := &Store{
		projects: make(map[string]*project),
		opts:     opts,
		logger:   opts.Logger,
	}

	for i, req := range opts.Seed {
		if _, err := s.Upsert(context.Background(), req); err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
	}
	return s, nil
}

// Close marks the store closed. Subsequent operations fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.projects = nil
	return nil
}

// Clear removes every record from every project.
// Intended for explicit teardown between tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.projects = make(map[string]*project)
}

// ClearProject removes every record belonging to one project.
func (s *Store) ClearProject(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	delete(s.projects, projectID)
}

// Upsert creates or replaces a record.
//
// The namespace is validated first; the embedding must be non-empty and of
// nonzero magnitude. When the ID is omitted one is generated, unique within
// the target namespace. An existing ID is a conflict unless req.Upsert is
// set, in which case the mutable fields are replaced and CreatedAt is
// preserved. The write is all-or-nothing.
func (s *Store) Upsert(ctx context.Context, req UpsertRequest) (*UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ns, err := ValidateNamespace(req.Namespace)
	if err != nil {
		return nil, err
	}
	if err := validateEmbedding(req.Embedding); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	proj, ok := s.projects[req.Project]
	if !ok {
		proj = &project{namespaces: make(map[string]*partition)}
		s.projects[req.Project] = proj
	}
	part, ok := proj.namespaces[ns]
	if !ok {
		part = newPartition(s.opts.Indexing)
		proj.namespaces[ns] = part
	}

	now := s.opts.Clock()

	id := req.ID
	if id == "" {
		for {
			id = s.opts.IDGenerator()
			if _, exists := part.records[id]; !exists {
				break
			}
		}
	}

	if existing, exists := part.records[id]; exists {
		if !req.Upsert {
			err := &DuplicateIDError{Namespace: ns, ID: id}
			s.logger.LogUpsert(ctx, ns, id, false, err)
			return nil, err
		}

		oldMeta := existing.Metadata
		existing.Embedding = slices.Clone(req.Embedding)
		existing.Document = req.Document
		existing.Metadata = metadata.CloneIfNeeded(req.Metadata)
		existing.Model = req.Model
		existing.UpdatedAt = now
		part.index.Update(part.rows[id], oldMeta, existing.Metadata)

		s.logger.LogUpsert(ctx, ns, id, false, nil)
		return &UpsertResult{
			ID:        id,
			Namespace: ns,
			Created:   false,
			CreatedAt: existing.CreatedAt,
			UpdatedAt: existing.UpdatedAt,
		}, nil
	}

	rec := &Record{
		ID:        id,
		Namespace: ns,
		Embedding: slices.Clone(req.Embedding),
		Document:  req.Document,
		Metadata:  metadata.CloneIfNeeded(req.Metadata),
		Model:     req.Model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	part.records[id] = rec
	part.order = append(part.order, id)
	row := part.nextRow
	part.nextRow++
	part.rows[id] = row
	part.index.Add(row, rec.Metadata)

	s.logger.LogUpsert(ctx, ns, id, true, nil)
	return &UpsertResult{
		ID:        id,
		Namespace: ns,
		Created:   true,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Get retrieves a record by ID, strictly scoped to the given namespace.
// Returns ErrNotFound when the namespace or the ID is absent.
func (s *Store) Get(ctx context.Context, projectID, namespace, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ns, err := ValidateNamespace(namespace)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	part := s.partition(projectID, ns)
	if part == nil {
		return nil, ErrNotFound
	}
	rec, ok := part.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Delete removes a record by ID, strictly scoped to the given namespace.
// Returns true iff something was removed; a missing ID is not an error.
func (s *Store) Delete(ctx context.Context, projectID, namespace, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ns, err := ValidateNamespace(namespace)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	proj, ok := s.projects[projectID]
	if !ok {
		s.logger.LogDelete(ctx, ns, id, false)
		return false, nil
	}
	part, ok := proj.namespaces[ns]
	if !ok {
		s.logger.LogDelete(ctx, ns, id, false)
		return false, nil
	}
	rec, ok := part.records[id]
	if !ok {
		s.logger.LogDelete(ctx, ns, id, false)
		return false, nil
	}

	part.index.Remove(part.rows[id], rec.Metadata)
	delete(part.records, id)
	delete(part.rows, id)
	if i := slices.Index(part.order, id); i >= 0 {
		part.order = slices.Delete(part.order, i, i+1)
	}

	// A namespace exists only while it holds vectors.
	if len(part.records) == 0 {
		delete(proj.namespaces, ns)
	}
	if len(proj.namespaces) == 0 {
		delete(s.projects, projectID)
	}

	s.logger.LogDelete(ctx, ns, id, true)
	return true, nil
}

// Stats reports the vector count for one namespace.
func (s *Store) Stats(ctx context.Context, projectID, namespace string) (*NamespaceStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ns, err := ValidateNamespace(namespace)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	count := 0
	if part := s.partition(projectID, ns); part != nil {
		count = len(part.records)
	}
	return &NamespaceStats{
		Namespace:   ns,
		VectorCount: count,
		Exists:      count > 0 || ns == DefaultNamespace,
	}, nil
}

// ListNamespaces returns the project's namespaces, sorted. The default
// namespace is always present; others exist only while non-empty.
func (s *Store) ListNamespaces(ctx context.Context, projectID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	names := []string{DefaultNamespace}
	if proj, ok := s.projects[projectID]; ok {
		for ns := range proj.namespaces {
			if ns != DefaultNamespace {
				names = append(names, ns)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// partition returns the live partition or nil. Caller must hold s.mu.
func (s *Store) partition(projectID, ns string) *partition {
	proj, ok := s.projects[projectID]
	if !ok {
		return nil
	}
	return proj.namespaces[ns]
}

func validateEmbedding(v []float32) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	mag, err := distance.Magnitude(v)
	if err != nil {
		return err
	}
	if mag == 0 {
		return ErrZeroVector
	}
	return nil
}

func cloneRecord(rec *Record) *Record {
	out := *rec
	out.Embedding = slices.Clone(rec.Embedding)
	out.Metadata = metadata.CloneIfNeeded(rec.Metadata)
	return &out
}
