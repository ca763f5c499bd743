// Package store journals property lifecycle events to Postgres. The
// marketplace core stays authoritative for state; the journal is an audit
// trail, so writes here are bookkeeping the core may survive losing.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// EnsureSchema creates the journal table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
CREATE TABLE IF NOT EXISTS property_events (
  event_id    bigserial PRIMARY KEY,
  property_id bigint NOT NULL,
  event_type  text NOT NULL,
  actor       text NOT NULL,
  payload     jsonb NOT NULL DEFAULT '{}'::jsonb,
  occurred_at timestamptz NOT NULL DEFAULT now()
)`)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `CREATE INDEX IF NOT EXISTS property_events_property_id_idx ON property_events(property_id)`)
	return err
}

// RecordEvent appends one lifecycle event for a property.
func (s *Store) RecordEvent(ctx context.Context, propertyID uint64, eventType string, actor domain.Address, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if payload == nil {
		b = []byte("{}")
	}
	_, err = s.DB.Exec(ctx, `INSERT INTO property_events(property_id,event_type,actor,payload) VALUES($1,$2,$3,$4::jsonb)`,
		int64(propertyID), eventType, string(actor), string(b))
	return err
}

type Event struct {
	PropertyID uint64         `json:"property_id"`
	EventType  string         `json:"event_type"`
	Actor      domain.Address `json:"actor"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ListEvents returns a property's events in application order.
func (s *Store) ListEvents(ctx context.Context, propertyID uint64) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `SELECT property_id,event_type,actor,payload,occurred_at
FROM property_events WHERE property_id=$1 ORDER BY event_id ASC`, int64(propertyID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			id      int64
			ev      Event
			actor   string
			payload []byte
		)
		if err := rows.Scan(&id, &ev.EventType, &actor, &payload, &ev.OccurredAt); err != nil {
			return nil, err
		}
		ev.PropertyID = uint64(id)
		ev.Actor = domain.Address(actor)
		ev.Payload, err = decodePayload(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func decodePayload(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	return payload, nil
}
