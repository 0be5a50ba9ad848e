package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/killuadb/schemamap/internal/models"
)

// ErrLayoutNotFound is returned when no layout is stored under a key.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutRepository stores saved layouts in the schema_layouts table.
type LayoutRepository struct {
	pool *pgxpool.Pool
}

func NewLayoutRepository(pool *pgxpool.Pool) *LayoutRepository {
	return &LayoutRepository{pool: pool}
}

// Save inserts or replaces the layout stored under layout.Key.
func (r *LayoutRepository) Save(ctx context.Context, layout *models.SavedLayout) error {
	layout.Prepare()

	positions, err := json.Marshal(layout.Positions)
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}

	query := `
		INSERT INTO schema_layouts (id, layout_key, positions, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (layout_key)
		DO UPDATE SET positions = EXCLUDED.positions, updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		layout.ID,
		layout.Key,
		positions,
		layout.UpdatedAt,
	).Scan(&layout.ID)
}

// GetByKey returns the layout stored under key, or ErrLayoutNotFound.
func (r *LayoutRepository) GetByKey(ctx context.Context, key string) (*models.SavedLayout, error) {
	query := `
		SELECT id, layout_key, positions, updated_at
		FROM schema_layouts WHERE layout_key = $1
	`

	var layout models.SavedLayout
	var positions []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&layout.ID,
		&layout.Key,
		&positions,
		&layout.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLayoutNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(positions, &layout.Positions); err != nil {
		return nil, fmt.Errorf("failed to decode positions for %q: %w", key, err)
	}

	return &layout, nil
}

// Delete removes the layout stored under key. Deleting a missing key is not an error.
func (r *LayoutRepository) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM schema_layouts WHERE layout_key = $1`, key)
	return err
}

// MemoryLayoutRepository keeps saved layouts in process memory. It is used
// when no layout database is configured.
type MemoryLayoutRepository struct {
	mu      sync.RWMutex
	layouts map[string]models.SavedLayout
}

func NewMemoryLayoutRepository() *MemoryLayoutRepository {
	return &MemoryLayoutRepository{layouts: make(map[string]models.SavedLayout)}
}

func (r *MemoryLayoutRepository) Save(_ context.Context, layout *models.SavedLayout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.layouts[layout.Key]; ok {
		layout.ID = existing.ID
	}
	layout.Prepare()
	r.layouts[layout.Key] = copyLayout(*layout)
	return nil
}

func (r *MemoryLayoutRepository) GetByKey(_ context.Context, key string) (*models.SavedLayout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	layout, ok := r.layouts[key]
	if !ok {
		return nil, ErrLayoutNotFound
	}
	out := copyLayout(layout)
	return &out, nil
}

func (r *MemoryLayoutRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.layouts, key)
	r.mu.Unlock()
	return nil
}

func copyLayout(l models.SavedLayout) models.SavedLayout {
	positions := make(map[string]models.Point, len(l.Positions))
	for k, v := range l.Positions {
		positions[k] = v
	}
	l.Positions = positions
	return l
}
