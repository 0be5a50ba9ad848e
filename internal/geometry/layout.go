package geometry

import "github.com/killuadb/schemamap/internal/models"

// Layout is the ordered NodePosition map of one visualizer. Order is the
// insertion order, which is also the draw order used for hit testing.
type Layout struct {
	order     []string
	positions map[string]models.Point
}

func NewLayout() *Layout {
	return &Layout{positions: make(map[string]models.Point)}
}

func (l *Layout) Get(name string) (models.Point, bool) {
	p, ok := l.positions[name]
	return p, ok
}

// Ptr returns a copy of the position of name, or nil when name has none.
func (l *Layout) Ptr(name string) *models.Point {
	p, ok := l.positions[name]
	if !ok {
		return nil
	}
	return &p
}

func (l *Layout) Has(name string) bool {
	_, ok := l.positions[name]
	return ok
}

// Set assigns a position, appending name to the draw order when it is new.
func (l *Layout) Set(name string, p models.Point) {
	if _, ok := l.positions[name]; !ok {
		l.order = append(l.order, name)
	}
	l.positions[name] = p
}

func (l *Layout) Len() int {
	return len(l.order)
}

func (l *Layout) Names() []string {
	names := make([]string, len(l.order))
	copy(names, l.order)
	return names
}

// Positions returns a copy of the name -> position map.
func (l *Layout) Positions() map[string]models.Point {
	out := make(map[string]models.Point, len(l.positions))
	for k, v := range l.positions {
		out[k] = v
	}
	return out
}

// Reconcile brings the layout in line with a freshly loaded table list.
// Names present before and after keep their position, vanished names are
// dropped and new names get grid slots appended after the retained ones,
// skipping any slot a retained node already sits on.
// The draw order becomes the order of names.
func (l *Layout) Reconcile(names []string) {
	next := 0
	occupied := make(map[models.Point]bool)
	for _, name := range names {
		if p, ok := l.positions[name]; ok {
			next++
			occupied[p] = true
		}
	}

	positions := make(map[string]models.Point, len(names))
	order := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := positions[name]; dup {
			continue
		}
		p, ok := l.positions[name]
		if !ok {
			for occupied[GridSlot(next)] {
				next++
			}
			p = GridSlot(next)
			occupied[p] = true
			next++
		}
		positions[name] = p
		order = append(order, name)
	}

	l.positions = positions
	l.order = order
}

// HitHeader returns the topmost table whose header contains the world point.
func (l *Layout) HitHeader(p models.Point) (string, bool) {
	for i := len(l.order) - 1; i >= 0; i-- {
		name := l.order[i]
		if HeaderBounds(l.positions[name]).Contains(p) {
			return name, true
		}
	}
	return "", false
}

// Restore overwrites positions of names already in the layout with saved ones.
// Saved names unknown to the layout are ignored. It returns how many moved.
func (l *Layout) Restore(saved map[string]models.Point) int {
	n := 0
	for _, name := range l.order {
		p, ok := saved[name]
		if !ok {
			continue
		}
		l.positions[name] = p
		n++
	}
	return n
}
