package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/killuadb/schemamap/internal/geometry"
	"github.com/killuadb/schemamap/internal/graph"
	"github.com/killuadb/schemamap/internal/interaction"
	"github.com/killuadb/schemamap/internal/models"
	"github.com/killuadb/schemamap/internal/notifier"
	"github.com/killuadb/schemamap/internal/render"
	"github.com/killuadb/schemamap/internal/repositories"
)

var (
	// ErrNotLoaded is returned by exports while no schema is shown.
	ErrNotLoaded = errors.New("schema map is not loaded")
	// ErrSuperseded is returned by a refresh whose result was discarded
	// because a newer refresh was started meanwhile.
	ErrSuperseded = errors.New("refresh superseded by a newer one")
	// ErrNoLayoutStore is returned when saving or restoring without a store.
	ErrNoLayoutStore = errors.New("no layout store configured")
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// SchemaSource supplies the schema payload.
type SchemaSource interface {
	Fetch(ctx context.Context) (models.Schema, error)
}

// LayoutStore persists saved layouts.
type LayoutStore interface {
	Save(ctx context.Context, layout *models.SavedLayout) error
	GetByKey(ctx context.Context, key string) (*models.SavedLayout, error)
	Delete(ctx context.Context, key string) error
}

// Visualizer is one schema map: its graph model, node positions, view state
// and drag state. All access is serialised by mu; the schema fetch runs
// without holding it so interaction continues during a refresh.
type Visualizer struct {
	id       uuid.UUID
	source   SchemaSource
	logger   *slog.Logger
	notifier *notifier.Notifier

	firstLoad     chan struct{}
	firstLoadOnce sync.Once

	// lastActive is the unix nano time of the last lookup by id.
	lastActive atomic.Int64

	mu         sync.Mutex
	status     Status
	lastErr    error
	model      *graph.Model
	layout     *geometry.Layout
	view       models.ViewState
	drag       interaction.State
	revision   uint64
	generation uint64
	refreshing int
	loadedAt   time.Time
}

func NewVisualizer(id uuid.UUID, source SchemaSource, logger *slog.Logger) *Visualizer {
	v := &Visualizer{
		id:        id,
		source:    source,
		logger:    logger.With("session", id.String()),
		notifier:  notifier.New(),
		firstLoad: make(chan struct{}),
		status:    StatusLoading,
		model:     graph.Empty(),
		layout:    geometry.NewLayout(),
		view:      models.NewViewState(),
	}
	v.touch(time.Now())
	return v
}

func (v *Visualizer) ID() uuid.UUID {
	return v.id
}

func (v *Visualizer) touch(now time.Time) {
	v.lastActive.Store(now.UnixNano())
}

// LastActive returns when the session was last looked up.
func (v *Visualizer) LastActive() time.Time {
	return time.Unix(0, v.lastActive.Load())
}

// Viewers returns the number of live subscribers.
func (v *Visualizer) Viewers() int {
	return v.notifier.Len()
}

// FirstLoadDone is closed once the initial load attempt has finished,
// successfully or not.
func (v *Visualizer) FirstLoadDone() <-chan struct{} {
	return v.firstLoad
}

func (v *Visualizer) markFirstLoadDone() {
	v.firstLoadOnce.Do(func() { close(v.firstLoad) })
}

// Refresh re-fetches the schema. On success the graph model is replaced,
// positions of surviving tables are kept and the hover is cleared. On failure
// the previous model and positions are left untouched and the visualizer
// enters the error state.
func (v *Visualizer) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.refreshing++
	v.mu.Unlock()

	start := time.Now()
	schema, err := v.source.Fetch(ctx)
	var model *graph.Model
	if err == nil {
		model, err = graph.Load(schema)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshing--

	if gen != v.generation {
		v.logger.Debug("discarding superseded refresh", "generation", gen)
		return ErrSuperseded
	}

	if err != nil {
		v.status = StatusError
		v.lastErr = fmt.Errorf("could not generate schema map: %w", err)
		v.logger.Warn("schema load failed", "error", err)
		v.bumpLocked()
		return v.lastErr
	}

	v.model = model
	v.layout.Reconcile(model.Names())
	v.view.HoveredTable = ""
	v.status = StatusLoaded
	v.lastErr = nil
	v.loadedAt = time.Now().UTC()

	if dangling := model.Dangling(); len(dangling) > 0 {
		v.logger.Info("schema has dangling relationships", "count", len(dangling))
	}
	v.logger.Debug("schema loaded",
		"tables", model.Len(),
		"relationships", len(model.Relationships()),
		"took", time.Since(start))

	v.bumpLocked()
	return nil
}

// Apply feeds one interaction event through the reducer and returns the
// resulting view state.
func (v *Visualizer) Apply(ev interaction.Event) (models.ViewState, error) {
	if err := ev.Validate(); err != nil {
		return models.ViewState{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	prevView := v.view
	prevDrag := v.drag.Drag

	// Nodes only exist while a schema is shown.
	var layout *geometry.Layout
	if v.status == StatusLoaded {
		layout = v.layout
	}

	v.drag, v.view = interaction.Reduce(v.drag, v.view, layout, ev)

	moved := ev.Kind == interaction.PointerMove && prevDrag != nil && v.drag.Drag != nil
	if moved || v.view != prevView || v.drag.Drag != prevDrag {
		v.bumpLocked()
	}
	return v.view, nil
}

// Scene builds the drawable scene of the current state. Outside the loaded
// state the scene has no nodes.
func (v *Visualizer) Scene() render.Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sceneLocked()
}

func (v *Visualizer) sceneLocked() render.Scene {
	if v.status != StatusLoaded {
		return render.Build(nil, nil, v.view)
	}
	return render.Build(v.model, v.layout, v.view)
}

// RenderSVG draws the current scene, whatever the status.
func (v *Visualizer) RenderSVG(w io.Writer) error {
	return render.SVGRenderer{}.Render(w, v.Scene())
}

// ExportSVG writes the on-screen scene, zoom included, as an SVG document.
func (v *Visualizer) ExportSVG(w io.Writer) error {
	v.mu.Lock()
	if v.status != StatusLoaded {
		v.mu.Unlock()
		return ErrNotLoaded
	}
	scene := v.sceneLocked()
	v.mu.Unlock()

	return render.SVGRenderer{}.Render(w, scene)
}

// ExportMermaid writes the graph model as a Mermaid erDiagram.
func (v *Visualizer) ExportMermaid(w io.Writer) error {
	v.mu.Lock()
	if v.status != StatusLoaded {
		v.mu.Unlock()
		return ErrNotLoaded
	}
	model := v.model
	v.mu.Unlock()

	return render.MermaidRenderer{}.RenderModel(w, model)
}

// ResetLayout puts every table back on the grid.
func (v *Visualizer) ResetLayout() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.layout = geometry.InitialLayout(v.model.Names())
	v.drag = interaction.State{}
	v.bumpLocked()
}

// Positions returns a copy of the current node positions.
func (v *Visualizer) Positions() map[string]models.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layout.Positions()
}

// SaveLayout stores the current positions under key.
func (v *Visualizer) SaveLayout(ctx context.Context, store LayoutStore, key string) (*models.SavedLayout, error) {
	if store == nil {
		return nil, ErrNoLayoutStore
	}
	v.mu.Lock()
	if v.status != StatusLoaded {
		v.mu.Unlock()
		return nil, ErrNotLoaded
	}
	saved := &models.SavedLayout{Key: key, Positions: v.layout.Positions()}
	v.mu.Unlock()

	if err := store.Save(ctx, saved); err != nil {
		return nil, fmt.Errorf("failed to save layout: %w", err)
	}
	return saved, nil
}

// RestoreLayout applies the positions saved under key to tables currently
// shown and returns how many nodes moved.
func (v *Visualizer) RestoreLayout(ctx context.Context, store LayoutStore, key string) (int, error) {
	if store == nil {
		return 0, ErrNoLayoutStore
	}
	saved, err := store.GetByKey(ctx, key)
	if err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	moved := v.layout.Restore(saved.Positions)
	if moved > 0 {
		v.bumpLocked()
	}
	return moved, nil
}

// Snapshot is a summary of the visualizer state.
type Snapshot struct {
	ID            uuid.UUID        `json:"id"`
	Status        Status           `json:"status"`
	Error         string           `json:"error,omitempty"`
	Refreshing    bool             `json:"refreshing"`
	Revision      uint64           `json:"revision"`
	View          models.ViewState `json:"view"`
	Mode          string           `json:"mode"`
	DragTable     string           `json:"drag_table,omitempty"`
	Tables        int              `json:"tables"`
	Relationships int              `json:"relationships"`
	Dangling      int              `json:"dangling"`
	LoadedAt      *time.Time       `json:"loaded_at,omitempty"`
}

func (v *Visualizer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{
		ID:            v.id,
		Status:        v.status,
		Refreshing:    v.refreshing > 0,
		Revision:      v.revision,
		View:          v.view,
		Mode:          v.drag.Mode().String(),
		Tables:        v.model.Len(),
		Relationships: len(v.model.Relationships()),
		Dangling:      len(v.model.Dangling()),
	}
	if v.lastErr != nil {
		s.Error = v.lastErr.Error()
	}
	if v.drag.Drag != nil {
		s.DragTable = v.drag.Drag.Table
	}
	if !v.loadedAt.IsZero() {
		t := v.loadedAt
		s.LoadedAt = &t
	}
	return s
}

func (v *Visualizer) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *Visualizer) Revision() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.revision
}

// Subscribe returns a channel receiving the revision after every change.
func (v *Visualizer) Subscribe() chan uint64 {
	return v.notifier.Subscribe()
}

func (v *Visualizer) Unsubscribe(ch chan uint64) {
	v.notifier.Unsubscribe(ch)
}

// Close disconnects all live viewers.
func (v *Visualizer) Close() {
	v.notifier.Close()
	v.markFirstLoadDone()
}

func (v *Visualizer) bumpLocked() {
	v.revision++
	v.notifier.Publish(v.revision)
}

// IsLayoutNotFound reports whether err means no layout was saved.
func IsLayoutNotFound(err error) bool {
	return errors.Is(err, repositories.ErrLayoutNotFound)
}
