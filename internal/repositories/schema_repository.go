package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/killuadb/schemamap/internal/graph"
	"github.com/killuadb/schemamap/internal/models"
)

// ErrUnexpectedStatus is returned when the introspection service answers
// with anything but 200 OK.
var ErrUnexpectedStatus = errors.New("unexpected status from schema endpoint")

// maxPayloadBytes bounds the size of a schema payload.
const maxPayloadBytes = 16 << 20

// SchemaRepository reads the schema payload from the introspection service.
// It never writes to it.
type SchemaRepository struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewSchemaRepository(endpoint, token string, timeout time.Duration) *SchemaRepository {
	return &SchemaRepository{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the URL the repository fetches from.
func (r *SchemaRepository) Endpoint() string {
	return r.endpoint
}

// Fetch performs one GET of the schema endpoint.
func (r *SchemaRepository) Fetch(ctx context.Context) (models.Schema, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return models.Schema{}, fmt.Errorf("failed to build schema request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return models.Schema{}, fmt.Errorf("failed to reach schema endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return models.Schema{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload *schemaPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		return models.Schema{}, fmt.Errorf("failed to decode schema payload: %w", err)
	}
	if payload == nil || payload.Tables == nil {
		return models.Schema{}, fmt.Errorf("%w: payload has no tables list", graph.ErrMalformedSchema)
	}

	return models.Schema{
		Tables:        *payload.Tables,
		Relationships: payload.Relationships,
	}, nil
}

// schemaPayload tells a missing or null "tables" apart from an empty list.
type schemaPayload struct {
	Tables        *[]models.Table       `json:"tables"`
	Relationships []models.Relationship `json:"relationships"`
}
