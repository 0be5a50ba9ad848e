package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/killuadb/schemamap/internal/models"
)

// fakeSource returns queued results in order and repeats the last one.
type fakeSource struct {
	mu      sync.Mutex
	results []fakeResult
	calls   int
	gate    chan struct{}
}

type fakeResult struct {
	schema models.Schema
	err    error
}

func newFakeSource(results ...fakeResult) *fakeSource {
	return &fakeSource{results: results}
}

func (f *fakeSource) Fetch(ctx context.Context) (models.Schema, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil && i == 0 {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.Schema{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return models.Schema{}, errors.New("no result queued")
	}
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i].schema, f.results[i].err
}

func schemaOf(names ...string) fakeResult {
	s := models.Schema{}
	for _, n := range names {
		s.Tables = append(s.Tables, models.Table{Name: n, Columns: []models.Column{{Name: "id", Type: "uuid"}}})
	}
	return fakeResult{schema: s}
}

func withRelationships(r fakeResult, rels ...models.Relationship) fakeResult {
	r.schema.Relationships = rels
	return r
}

func failed(msg string) fakeResult {
	return fakeResult{err: errors.New(msg)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
