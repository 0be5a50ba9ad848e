package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedLayout is a stored set of node positions, keyed by the schema it
// was arranged for.
type SavedLayout struct {
	ID        uuid.UUID        `json:"id"`
	Key       string           `json:"key"`
	Positions map[string]Point `json:"positions"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (l *SavedLayout) Prepare() {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Positions == nil {
		l.Positions = make(map[string]Point)
	}
	l.UpdatedAt = time.Now().UTC()
}
