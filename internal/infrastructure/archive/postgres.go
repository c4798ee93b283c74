package archive

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

const defaultRecentRuns = 20

// Open connects to Postgres via the lib/pq driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresArchive keeps a history of completed discovery runs, one row per
// run. The key-value store holds only the latest snapshot; the archive holds
// the trail.
type PostgresArchive struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunArchive = (*PostgresArchive)(nil)

// NewPostgresArchive wires a sql.DB implementation. A nil db turns every
// operation into a no-op so the archive stays optional.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveRun appends one archive row for a completed run.
func (a *PostgresArchive) SaveRun(ctx context.Context, snap domain.Snapshot) error {
	if a.db == nil {
		return nil
	}

	topCompetitor := ""
	if len(snap.TopCompetitors) > 0 {
		topCompetitor = snap.TopCompetitors[0].Username
	}

	query, args, err := a.builder.
		Insert("discovery_runs").
		Columns("id", "user_handle", "method", "analyzed_count", "high_quality_count", "top_competitor", "created_at").
		Values(uuid.NewString(), snap.UserHandle, string(snap.Method), snap.AnalyzedCount, snap.HighQualityCount, topCompetitor, snap.LastUpdated).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns lists the newest archive rows for handle.
func (a *PostgresArchive) RecentRuns(ctx context.Context, handle string, limit int) ([]domain.RunRecord, error) {
	if a.db == nil {
		return []domain.RunRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultRecentRuns
	}

	query, args, err := a.builder.
		Select("id", "user_handle", "method", "analyzed_count", "high_quality_count", "top_competitor", "created_at").
		From("discovery_runs").
		Where(sq.Eq{"user_handle": handle}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var records []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var method string
		if err := rows.Scan(&rec.ID, &rec.UserHandle, &method, &rec.AnalyzedCount, &rec.HighQualityCount, &rec.TopCompetitor, &rec.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Method = domain.Method(method)
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return records, nil
}
