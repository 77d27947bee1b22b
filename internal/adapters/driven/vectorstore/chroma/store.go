// Package chroma provides a vector store adapter using the Chroma HTTP API.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 60 * time.Second
	DefaultSpace   = "l2" // Chroma's default hnsw:space
)

// Config holds configuration for the Chroma store.
type Config struct {
	// BaseURL is the Chroma server base URL (default: http://localhost:8000).
	BaseURL string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Space is the hnsw:space set on newly created collections
	// (default: l2). Existing collections keep whatever they were created
	// with; Metric always reports the stored value.
	Space string
}

// Store talks to a Chroma server over its v1 REST API. A collection's id and
// hnsw:space are fixed at creation, so both are resolved by name once and
// cached for the lifetime of the store; later calls never re-fetch them.
type Store struct {
	client  *http.Client
	baseURL string
	space   string

	mu    sync.Mutex
	colls map[string]collectionRef // keyed by collection name
}

// collectionRef is the cached identity of one collection.
type collectionRef struct {
	id     string
	metric driven.Metric
}

// collection is the Chroma collection resource.
type collection struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

// upsertRequest is the /upsert request format. Chroma wants parallel arrays.
type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

// queryRequest is the /query request format.
type queryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

// queryResponse is the /query response format: one inner array per query
// embedding; we always send exactly one.
type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// NewStore creates a new Chroma store.
func NewStore(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Space == "" {
		cfg.Space = DefaultSpace
	}

	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		space:   cfg.Space,
		colls:   make(map[string]collectionRef),
	}
}

// Upsert writes records into the named collection, creating it if needed.
func (s *Store) Upsert(ctx context.Context, name string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	ref, err := s.getCollection(ctx, name, true)
	if err != nil {
		return err
	}

	req := upsertRequest{
		IDs:        make([]string, len(records)),
		Embeddings: make([][]float32, len(records)),
		Documents:  make([]string, len(records)),
		Metadatas:  make([]map[string]any, len(records)),
	}
	for i, r := range records {
		req.IDs[i] = r.ID
		req.Embeddings[i] = r.Embedding
		req.Documents[i] = r.Text
		req.Metadatas[i] = r.Metadata
	}

	path := fmt.Sprintf("/api/v1/collections/%s/upsert", ref.id)
	if err := s.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("chroma upsert into %q: %w", name, err)
	}
	return nil
}

// Query returns up to k nearest neighbours with raw distances.
func (s *Store) Query(ctx context.Context, name string, embedding []float32, k int) ([]driven.QueryMatch, error) {
	ref, err := s.getCollection(ctx, name, false)
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        k,
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var resp queryResponse
	path := fmt.Sprintf("/api/v1/collections/%s/query", ref.id)
	if err := s.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("chroma query %q: %w", name, err)
	}

	if len(resp.IDs) == 0 {
		return nil, nil
	}

	matches := make([]driven.QueryMatch, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		m := driven.QueryMatch{ID: id}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			m.Score = resp.Distances[0][i]
		}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			m.Text = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			m.Metadata = resp.Metadatas[0][i]
		}
		matches[i] = m
	}
	return matches, nil
}

// Metric reports the hnsw:space recorded on the collection.
func (s *Store) Metric(ctx context.Context, name string) (driven.Metric, error) {
	ref, err := s.getCollection(ctx, name, false)
	if err != nil {
		return "", err
	}
	return ref.metric, nil
}

// ListCollections returns stats for every collection on the server.
func (s *Store) ListCollections(ctx context.Context) ([]driven.CollectionStats, error) {
	var colls []collection
	if err := s.do(ctx, http.MethodGet, "/api/v1/collections", nil, &colls); err != nil {
		return nil, fmt.Errorf("chroma list collections: %w", err)
	}

	stats := make([]driven.CollectionStats, 0, len(colls))
	for _, c := range colls {
		count, err := s.count(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		stats = append(stats, driven.CollectionStats{
			Name:   c.Name,
			Count:  count,
			Metric: spaceToMetric(c.Metadata),
		})
	}
	return stats, nil
}

// Stats returns stats for one collection.
func (s *Store) Stats(ctx context.Context, name string) (*driven.CollectionStats, error) {
	ref, err := s.getCollection(ctx, name, false)
	if err != nil {
		return nil, err
	}
	count, err := s.count(ctx, ref.id)
	if err != nil {
		return nil, err
	}
	return &driven.CollectionStats{
		Name:   name,
		Count:  count,
		Metric: ref.metric,
	}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// getCollection resolves a collection by name, optionally creating it.
// Cache hits are served without touching the server.
func (s *Store) getCollection(ctx context.Context, name string, create bool) (collectionRef, error) {
	s.mu.Lock()
	if ref, ok := s.colls[name]; ok {
		s.mu.Unlock()
		return ref, nil
	}
	s.mu.Unlock()

	var coll collection
	if create {
		req := map[string]any{
			"name":          name,
			"metadata":      map[string]any{"hnsw:space": s.space},
			"get_or_create": true,
		}
		if err := s.do(ctx, http.MethodPost, "/api/v1/collections", req, &coll); err != nil {
			return collectionRef{}, fmt.Errorf("chroma create collection %q: %w", name, err)
		}
	} else {
		err := s.do(ctx, http.MethodGet, "/api/v1/collections/"+name, nil, &coll)
		if err != nil {
			if isNotFound(err) {
				return collectionRef{}, fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
			}
			return collectionRef{}, fmt.Errorf("chroma get collection %q: %w", name, err)
		}
	}

	ref := collectionRef{id: coll.ID, metric: spaceToMetric(coll.Metadata)}
	s.mu.Lock()
	s.colls[name] = ref
	s.mu.Unlock()
	return ref, nil
}

// count reads the record count of a collection by id.
func (s *Store) count(ctx context.Context, id string) (int, error) {
	var n int
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/collections/%s/count", id), nil, &n); err != nil {
		return 0, fmt.Errorf("chroma count: %w", err)
	}
	return n, nil
}

// httpError carries the status for not-found detection.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	he, ok := err.(*httpError)
	return ok && he.status == http.StatusNotFound
}

// do executes one JSON request against the server.
func (s *Store) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var reader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpError{status: resp.StatusCode, body: string(body)}
	}

	if respBody != nil && len(body) > 0 {
		if err := json.Unmarshal(body, respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// spaceToMetric maps Chroma's hnsw:space metadata onto the port's metric
// tags. Unknown or missing values fall back to Chroma's l2 default.
func spaceToMetric(metadata map[string]any) driven.Metric {
	space, _ := metadata["hnsw:space"].(string)
	switch space {
	case "cosine":
		return driven.MetricCosine
	case "ip":
		return driven.MetricInnerProduct
	case "l2", "":
		return driven.MetricL2
	default:
		return driven.MetricL2
	}
}
