package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/repository"
)

// RaceResultRepoImpl provides a concrete implementation for the RaceResultRepository interface using PostgreSQL.
type RaceResultRepoImpl struct {
	db *pgxpool.Pool
}

// NewRaceResultRepo creates a new instance of RaceResultRepoImpl.
func NewRaceResultRepo(db *pgxpool.Pool) *RaceResultRepoImpl {
	return &RaceResultRepoImpl{db: db}
}

// Save stores or replaces a finished race and its failed pages within a single transaction.
func (r *RaceResultRepoImpl) Save(ctx context.Context, result *entity.RaceResult) error {
	var pathJSON []byte
	if result.Path != nil {
		var err error
		if pathJSON, err = json.Marshal(result.Path); err != nil {
			return fmt.Errorf("encode path: %w", err)
		}
	}
	levels := result.Levels
	if levels == nil {
		levels = []entity.LevelStats{}
	}
	levelsJSON, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("encode levels: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO races (id, start_url, end_url, max_depth, outcome, path, depth_reached, pages_expanded, levels, duration_ms, failure_reason, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			path = EXCLUDED.path,
			depth_reached = EXCLUDED.depth_reached,
			pages_expanded = EXCLUDED.pages_expanded,
			levels = EXCLUDED.levels,
			duration_ms = EXCLUDED.duration_ms,
			failure_reason = EXCLUDED.failure_reason,
			completed_at = EXCLUDED.completed_at;
	`
	_, err = tx.Exec(ctx, query,
		result.RaceID,
		result.Start,
		result.End,
		result.MaxDepth,
		string(result.Outcome),
		pathJSON,
		result.DepthReached,
		result.PagesExpanded,
		levelsJSON,
		result.Duration.Milliseconds(),
		result.FailureReason,
		result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert race %s: %w", result.RaceID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM race_failed_pages WHERE race_id = $1;`, result.RaceID); err != nil {
		return fmt.Errorf("clear failed pages for %s: %w", result.RaceID, err)
	}

	// Batch insert failed pages
	if len(result.FailedPages) > 0 {
		batch := &pgx.Batch{}
		for _, fp := range result.FailedPages {
			batch.Queue(`INSERT INTO race_failed_pages (race_id, url, reason) VALUES ($1, $2, $3)
			             ON CONFLICT (race_id, url) DO UPDATE SET reason = EXCLUDED.reason`,
				result.RaceID, fp.URL, fp.Reason)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert failed pages for %s: %w", result.RaceID, err)
		}
	}

	return tx.Commit(ctx)
}

// FindByID retrieves a finished race and its failed pages.
func (r *RaceResultRepoImpl) FindByID(ctx context.Context, raceID string) (*entity.RaceResult, error) {
	query := `
		SELECT id, start_url, end_url, max_depth, outcome, path, depth_reached, pages_expanded, levels, duration_ms, failure_reason, completed_at
		FROM races
		WHERE id = $1;
	`
	var (
		res        entity.RaceResult
		outcome    string
		pathJSON   []byte
		levelsJSON []byte
		durationMS int64
	)
	err := r.db.QueryRow(ctx, query, raceID).Scan(
		&res.RaceID,
		&res.Start,
		&res.End,
		&res.MaxDepth,
		&outcome,
		&pathJSON,
		&res.DepthReached,
		&res.PagesExpanded,
		&levelsJSON,
		&durationMS,
		&res.FailureReason,
		&res.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	res.Outcome = entity.Outcome(outcome)
	res.Duration = time.Duration(durationMS) * time.Millisecond

	if len(pathJSON) > 0 {
		if err := json.Unmarshal(pathJSON, &res.Path); err != nil {
			return nil, fmt.Errorf("decode path: %w", err)
		}
	}
	if err := json.Unmarshal(levelsJSON, &res.Levels); err != nil {
		return nil, fmt.Errorf("decode levels: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT url, reason FROM race_failed_pages WHERE race_id = $1 ORDER BY url;`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var fp entity.FailedPage
		if err := rows.Scan(&fp.URL, &fp.Reason); err != nil {
			return nil, err
		}
		res.FailedPages = append(res.FailedPages, fp)
	}

	return &res, rows.Err()
}

// Ping reports whether the database is reachable.
func (r *RaceResultRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
