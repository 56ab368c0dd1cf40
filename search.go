package memvec

import (
	"context"
	"slices"
	"sort"

	"github.com/AINative-Studio/memvec/distance"
	"github.com/AINative-Studio/memvec/metadata"
)

// Search runs a similarity query against one namespace.
//
// The pipeline, in order: the metadata filter is parsed and validated, then
// the namespace, then the query vector. A namespace that holds no vectors
// yields an empty response, never an error. Candidates whose embedding
// dimensionality differs from the query are skipped. Scores are normalized
// cosine similarity in [0, 1]; the threshold is inclusive. Results are
// ordered by descending score, ties broken by insertion order, the metadata
// filter is applied, and the list is truncated to TopK (default 10).
// Metadata and embeddings appear in results only when explicitly requested.
func (s *Store) Search(ctx context.Context, q SearchQuery) (*SearchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs, err := metadata.ParseFilter(q.Filter)
	if err != nil {
		return nil, err
	}

	ns, err := ValidateNamespace(q.Namespace)
	if err != nil {
		return nil, err
	}

	if err := validateEmbedding(q.Embedding); err != nil {
		return nil, err
	}

	topK := q.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	part := s.partition(q.Project, ns)
	if part == nil {
		s.logger.LogSearch(ctx, ns, topK, 0, nil)
		return &SearchResponse{Results: []SearchResult{}, Total: 0, Namespace: ns}, nil
	}

	type candidate struct {
		rec   *Record
		score float32
	}

	candidates := make([]candidate, 0, len(part.order))
	for _, id := range part.order {
		rec := part.records[id]
		if len(rec.Embedding) != len(q.Embedding) {
			continue
		}
		score, err := distance.Score(q.Embedding, rec.Embedding)
		if err != nil {
			continue
		}
		if score < q.Threshold {
			continue
		}
		candidates = append(candidates, candidate{rec: rec, score: score})
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	match := func(*Record) bool { return true }
	if fs != nil && len(fs.Filters) > 0 {
		if fn, ok := part.index.Compile(fs); ok {
			rows := part.rows
			match = func(rec *Record) bool { return fn(rows[rec.ID]) }
		} else {
			match = func(rec *Record) bool { return fs.Matches(rec.Metadata) }
		}
	}

	results := make([]SearchResult, 0, topK)
	for _, c := range candidates {
		if !match(c.rec) {
			continue
		}
		results = append(results, s.buildResult(c.rec, c.score, q))
		if len(results) == topK {
			break
		}
	}

	s.logger.LogSearch(ctx, ns, topK, len(results), nil)
	return &SearchResponse{
		Results:   results,
		Total:     len(results),
		Namespace: ns,
	}, nil
}

func (s *Store) buildResult(rec *Record, score float32, q SearchQuery) SearchResult {
	res := SearchResult{
		ID:        rec.ID,
		Score:     score,
		Document:  rec.Document,
		Model:     rec.Model,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if q.IncludeMetadata && rec.Metadata != nil {
		res.Metadata = rec.Metadata.AsMap()
	}
	if q.IncludeEmbeddings {
		res.Embedding = slices.Clone(rec.Embedding)
	}
	return res
}
