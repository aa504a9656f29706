package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a captured output frame with the style that produced it.
type Snapshot struct {
	ID        string         `json:"id"`
	Style     string         `json:"style"`
	Variant   string         `json:"variant"`
	Params    map[string]any `json:"params"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	JPEG      []byte         `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot, assigning its ID when empty.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.CreatedAt = time.Now()

	params, err := json.Marshal(snap.Params)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO snapshots (id, style, variant, params, width, height, jpeg, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Style, snap.Variant, string(params), snap.Width, snap.Height, snap.JPEG, snap.CreatedAt,
	)
	return err
}

// GetByID retrieves a snapshot including its image.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	snap := &Snapshot{}
	var params string

	err := r.db.QueryRow(
		`SELECT id, style, variant, params, width, height, jpeg, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.Style, &snap.Variant, &params, &snap.Width, &snap.Height, &snap.JPEG, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(params), &snap.Params); err != nil {
		return nil, err
	}
	return snap, nil
}

// List returns every snapshot without its image, newest first.
func (r *SnapshotRepository) List() ([]*Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, style, variant, params, width, height, created_at
		 FROM snapshots ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps := []*Snapshot{}
	for rows.Next() {
		snap := &Snapshot{}
		var params string
		if err := rows.Scan(&snap.ID, &snap.Style, &snap.Variant, &params, &snap.Width, &snap.Height, &snap.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(params), &snap.Params); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Delete removes a snapshot.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
