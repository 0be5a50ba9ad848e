package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killuadb/schemamap/internal/models"
)

func TestLayout_Reconcile(t *testing.T) {
	l := NewLayout()
	l.Set("A", models.Point{X: 10, Y: 10})
	l.Set("B", models.Point{X: 50, Y: 50})

	l.Reconcile([]string{"A", "C"})

	a, ok := l.Get("A")
	assert.True(t, ok)
	assert.Equal(t, models.Point{X: 10, Y: 10}, a)

	c, ok := l.Get("C")
	assert.True(t, ok)
	assert.Equal(t, GridSlot(1), c, "new table is appended after the retained one")

	assert.False(t, l.Has("B"))
	assert.Equal(t, []string{"A", "C"}, l.Names())
}

func TestLayout_ReconcileFollowsPayloadOrder(t *testing.T) {
	l := InitialLayout([]string{"a", "b", "c"})
	b, _ := l.Get("b")

	l.Reconcile([]string{"d", "b", "e"})

	assert.Equal(t, []string{"d", "b", "e"}, l.Names())
	got, _ := l.Get("b")
	assert.Equal(t, b, got)
	d, _ := l.Get("d")
	e, _ := l.Get("e")
	assert.Equal(t, GridSlot(2), d, "slot 1 is taken by b")
	assert.Equal(t, GridSlot(3), e)
}

func TestLayout_ReconcileNeverStacksNodes(t *testing.T) {
	tests := []struct {
		name   string
		before []string
		after  []string
		want   map[string]models.Point
	}{
		{
			name:   "middle table replaced",
			before: []string{"A", "B", "C"},
			after:  []string{"A", "C", "D"},
			want:   map[string]models.Point{"A": GridSlot(0), "C": GridSlot(2), "D": GridSlot(3)},
		},
		{
			name:   "first table replaced",
			before: []string{"A", "B"},
			after:  []string{"C", "B"},
			want:   map[string]models.Point{"B": GridSlot(1), "C": GridSlot(2)},
		},
		{
			name:   "gap reused",
			before: []string{"A", "B", "C"},
			after:  []string{"C", "X", "Y"},
			want:   map[string]models.Point{"C": GridSlot(2), "X": GridSlot(1), "Y": GridSlot(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := InitialLayout(tt.before)
			l.Reconcile(tt.after)

			assert.Equal(t, tt.want, l.Positions())

			seen := make(map[models.Point]string)
			for _, name := range l.Names() {
				p, _ := l.Get(name)
				other, dup := seen[p]
				assert.False(t, dup, "%s shares %v with %s", name, p, other)
				seen[p] = name
			}
		})
	}
}

func TestLayout_EveryNameHasOnePosition(t *testing.T) {
	l := InitialLayout([]string{"x"})
	names := []string{"x", "y", "z", "w", "v"}

	l.Reconcile(names)

	assert.Equal(t, len(names), l.Len())
	for _, n := range names {
		assert.True(t, l.Has(n), n)
	}
}

func TestLayout_HitHeader(t *testing.T) {
	l := NewLayout()
	l.Set("under", models.Point{X: 0, Y: 0})
	l.Set("over", models.Point{X: 100, Y: 10})

	name, ok := l.HitHeader(models.Point{X: 150, Y: 20})
	assert.True(t, ok)
	assert.Equal(t, "over", name, "last drawn node is on top")

	name, ok = l.HitHeader(models.Point{X: 50, Y: 5})
	assert.True(t, ok)
	assert.Equal(t, "under", name)

	_, ok = l.HitHeader(models.Point{X: 50, Y: 200})
	assert.False(t, ok, "body rows are not a drag handle")
}

func TestLayout_Restore(t *testing.T) {
	l := InitialLayout([]string{"users", "posts"})

	moved := l.Restore(map[string]models.Point{
		"users":   {X: 1, Y: 2},
		"removed": {X: 3, Y: 4},
	})

	assert.Equal(t, 1, moved)
	p, _ := l.Get("users")
	assert.Equal(t, models.Point{X: 1, Y: 2}, p)
	assert.False(t, l.Has("removed"))
}

func TestLayout_Ptr(t *testing.T) {
	l := InitialLayout([]string{"a"})

	p := l.Ptr("a")
	require.NotNil(t, p)
	assert.Equal(t, GridSlot(0), *p)
	assert.Nil(t, l.Ptr("missing"))
}
