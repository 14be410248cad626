package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/needledrop/needledrop/internal/provider"
)

// matchColumns is the ordered list of columns for SELECT queries.
const matchColumns = `id, release_id, track_index, platform, match_url,
	confidence, approved, verified_by, verified_at, created_at, updated_at`

// Store provides durable match record operations. The track_matches
// table carries a unique (release_id, track_index) constraint, making
// Upsert idempotent per track.
type Store struct {
	db *sql.DB
}

// NewStore creates a match store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get retrieves the match record for a (release, track index) pair.
// Returns nil, nil when no record exists.
func (s *Store) Get(ctx context.Context, releaseID int64, trackIndex int) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM track_matches WHERE release_id = ? AND track_index = ?`,
		releaseID, trackIndex)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match record: %w", err)
	}
	return rec, nil
}

// Upsert inserts or overwrites the match record for its
// (release, track index) key and returns the stored row. On conflict
// the platform, URL, confidence, approval, and verifier fields are
// replaced and verified_at/updated_at refreshed; id and created_at are
// preserved.
func (s *Store) Upsert(ctx context.Context, rec *Record) (*Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO track_matches (
			id, release_id, track_index, platform, match_url,
			confidence, approved, verified_by, verified_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (release_id, track_index) DO UPDATE SET
			platform = excluded.platform,
			match_url = excluded.match_url,
			confidence = excluded.confidence,
			approved = excluded.approved,
			verified_by = excluded.verified_by,
			verified_at = excluded.verified_at,
			updated_at = excluded.updated_at
	`,
		rec.ID, rec.ReleaseID, rec.TrackIndex, string(rec.Platform), rec.MatchURL,
		rec.Confidence, boolToInt(rec.Approved), rec.VerifiedBy,
		formatNullableTime(rec.VerifiedAt),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting match record: %w", err)
	}

	stored, err := s.Get(ctx, rec.ReleaseID, rec.TrackIndex)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("match record missing after upsert")
	}
	return stored, nil
}

// Delete removes the match record for a (release, track index) pair.
// Returns false when no record existed.
func (s *Store) Delete(ctx context.Context, releaseID int64, trackIndex int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM track_matches WHERE release_id = ? AND track_index = ?`,
		releaseID, trackIndex)
	if err != nil {
		return false, fmt.Errorf("deleting match record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting match record: %w", err)
	}
	return n > 0, nil
}

// ListForRelease returns all match records for a release ordered by
// track index.
func (s *Store) ListForRelease(ctx context.Context, releaseID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM track_matches WHERE release_id = ? ORDER BY track_index`,
		releaseID)
	if err != nil {
		return nil, fmt.Errorf("listing match records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing match records: %w", err)
	}
	return records, nil
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var (
		rec        Record
		platform   string
		approved   int
		verifiedAt sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(
		&rec.ID, &rec.ReleaseID, &rec.TrackIndex, &platform, &rec.MatchURL,
		&rec.Confidence, &approved, &rec.VerifiedBy, &verifiedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Platform = provider.Platform(platform)
	rec.Approved = approved != 0
	rec.VerifiedAt = parseNullableTime(verifiedAt)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
