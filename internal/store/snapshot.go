package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotInfo describes one cached collection without its payload.
type SnapshotInfo struct {
	Resource  string    `json:"resource"`
	Size      int       `json:"size"`
	Encrypted bool      `json:"encrypted"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SnapshotStore keeps the last known state of each collection so a restart
// can serve data before the first remote call completes. With a passphrase,
// payloads are encrypted at rest.
type SnapshotStore struct {
	db     *sql.DB
	sealer *sealer
}

func NewSnapshotStore(db *sql.DB, passphrase string) (*SnapshotStore, error) {
	s := &SnapshotStore{db: db}
	if passphrase != "" {
		sl, err := newSealer(passphrase)
		if err != nil {
			return nil, err
		}
		s.sealer = sl
	}
	return s, nil
}

// Save stores v as the snapshot of resource, replacing any previous one.
func (s *SnapshotStore) Save(ctx context.Context, resource string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", resource, err)
	}
	encrypted := false
	if s.sealer != nil {
		if payload, err = s.sealer.seal(payload, []byte(resource)); err != nil {
			return fmt.Errorf("seal snapshot %s: %w", resource, err)
		}
		encrypted = true
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (resource, payload, encrypted, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(resource) DO UPDATE SET payload = excluded.payload, encrypted = excluded.encrypted, updated_at = excluded.updated_at`,
		resource, payload, encrypted, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", resource, err)
	}
	return nil
}

// Load decodes the snapshot of resource into dst. It reports false when
// nothing is cached.
func (s *SnapshotStore) Load(ctx context.Context, resource string, dst any) (bool, error) {
	var payload []byte
	var encrypted bool
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, encrypted FROM snapshots WHERE resource = ?`, resource,
	).Scan(&payload, &encrypted)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot %s: %w", resource, err)
	}

	if encrypted {
		if s.sealer == nil {
			return false, fmt.Errorf("snapshot %s is encrypted: %w", resource, ErrDecrypt)
		}
		if payload, err = s.sealer.open(payload, []byte(resource)); err != nil {
			return false, fmt.Errorf("open snapshot %s: %w", resource, err)
		}
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", resource, err)
	}
	return true, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, resource string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE resource = ?`, resource); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", resource, err)
	}
	return nil
}

func (s *SnapshotStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resource, length(payload), encrypted, updated_at FROM snapshots ORDER BY resource`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Resource, &info.Size, &info.Encrypted, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
