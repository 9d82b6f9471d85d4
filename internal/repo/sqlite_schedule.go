package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/quickavail/backend/internal/domain"
)

// sqlDB is satisfied by *sql.DB and *sql.Tx.
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteScheduleRepo stores schedules in SQLite. Timestamps are INTEGER unix
// milliseconds and structured fields are JSON text.
type sqliteScheduleRepo struct {
	db sqlDB
}

// NewSQLiteScheduleRepo constructs a ScheduleRepo on a database opened with
// the "sqlite" driver and migrated with the sqlite migration set.
func NewSQLiteScheduleRepo(db sqlDB) ScheduleRepo {
	return &sqliteScheduleRepo{db: db}
}

func (r *sqliteScheduleRepo) Create(ctx context.Context, s domain.Schedule) error {
	const q = `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	doc, err := encodeScheduleJSON(s)
	if err != nil {
		return fmt.Errorf("repo.SQLiteScheduleRepo.Create: %w", err)
	}

	_, err = r.db.ExecContext(ctx, q,
		s.ShareID, s.PersonName, s.PersonEmail, s.SelectedProject, string(doc.projects),
		string(doc.selectedDates), unixMillis(s.CreatedAt), unixMillis(s.ExpiresAt), s.UserTimezone, s.ViewCount,
		unixMillis(s.LastViewedAt), s.Analytics.TotalHours, s.Analytics.DaysSelected, string(doc.projectsUsed),
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return fmt.Errorf("repo.SQLiteScheduleRepo.Create: %w", domain.ErrConflict)
		}
		return fmt.Errorf("repo.SQLiteScheduleRepo.Create: %w", err)
	}
	return nil
}

func (r *sqliteScheduleRepo) GetByShareID(ctx context.Context, shareID string) (domain.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM schedules WHERE share_id = ?`

	s, err := scanSQLiteSchedule(r.db.QueryRowContext(ctx, q, shareID))
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("repo.SQLiteScheduleRepo.GetByShareID: %w", err)
	}
	return s, nil
}

func (r *sqliteScheduleRepo) RecordView(ctx context.Context, shareID string, at time.Time) (int, error) {
	const q = `
		UPDATE schedules
		SET view_count = view_count + 1, last_viewed_at = ?
		WHERE share_id = ?
		RETURNING view_count`

	var count int
	if err := r.db.QueryRowContext(ctx, q, unixMillis(at), shareID).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("repo.SQLiteScheduleRepo.RecordView: %w", domain.ErrNotFound)
		}
		return 0, fmt.Errorf("repo.SQLiteScheduleRepo.RecordView: %w", err)
	}
	return count, nil
}

func (r *sqliteScheduleRepo) Count(ctx context.Context, f domain.ScheduleFilter) (int64, error) {
	where, args := sqliteWhere(f)

	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.SQLiteScheduleRepo.Count: %w", err)
	}
	return n, nil
}

func (r *sqliteScheduleRepo) Sample(ctx context.Context, f domain.ScheduleFilter, limit int) ([]domain.ScheduleSummary, error) {
	where, args := sqliteWhere(f)
	q := `
		SELECT share_id, person_name, created_at, expires_at, view_count
		FROM schedules` + where + `
		ORDER BY created_at, share_id
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("repo.SQLiteScheduleRepo.Sample: %w", err)
	}
	defer rows.Close()

	out := []domain.ScheduleSummary{}
	for rows.Next() {
		var (
			s                  domain.ScheduleSummary
			created, expiresAt int64
		)
		if err := rows.Scan(&s.ShareID, &s.PersonName, &created, &expiresAt, &s.ViewCount); err != nil {
			return nil, fmt.Errorf("repo.SQLiteScheduleRepo.Sample: scan: %w", err)
		}
		s.CreatedAt = fromUnixMillis(created)
		s.ExpiresAt = fromUnixMillis(expiresAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SQLiteScheduleRepo.Sample: rows: %w", err)
	}
	return out, nil
}

func (r *sqliteScheduleRepo) DeleteMatching(ctx context.Context, f domain.ScheduleFilter) (int64, error) {
	where, args := sqliteWhere(f)

	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("repo.SQLiteScheduleRepo.DeleteMatching: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("repo.SQLiteScheduleRepo.DeleteMatching: rows affected: %w", err)
	}
	return n, nil
}

func (r *sqliteScheduleRepo) ViewStats(ctx context.Context) (domain.ViewStats, error) {
	const q = `
		SELECT COALESCE(SUM(view_count), 0),
		       COALESCE(AVG(view_count), 0.0),
		       COALESCE(MAX(view_count), 0),
		       COALESCE(SUM(CASE WHEN view_count > 1 THEN 1 ELSE 0 END), 0)
		FROM schedules`

	var st domain.ViewStats
	err := r.db.QueryRowContext(ctx, q).Scan(&st.TotalViews, &st.AverageViews, &st.MaxViews, &st.SchedulesWithViews)
	if err != nil {
		return domain.ViewStats{}, fmt.Errorf("repo.SQLiteScheduleRepo.ViewStats: %w", err)
	}
	return st, nil
}

func (r *sqliteScheduleRepo) ActiveExpirations(ctx context.Context, now time.Time) ([]time.Time, error) {
	const q = `SELECT expires_at FROM schedules WHERE expires_at > ? ORDER BY expires_at`

	rows, err := r.db.QueryContext(ctx, q, unixMillis(now))
	if err != nil {
		return nil, fmt.Errorf("repo.SQLiteScheduleRepo.ActiveExpirations: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("repo.SQLiteScheduleRepo.ActiveExpirations: scan: %w", err)
		}
		out = append(out, fromUnixMillis(ms))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SQLiteScheduleRepo.ActiveExpirations: rows: %w", err)
	}
	return out, nil
}

func (r *sqliteScheduleRepo) ProjectUsage(ctx context.Context, limit int) ([]domain.ProjectUsage, error) {
	const q = `
		SELECT p.value, COUNT(*), COALESCE(SUM(s.total_hours), 0.0)
		FROM schedules AS s, json_each(s.projects_used) AS p
		GROUP BY p.value
		ORDER BY COUNT(*) DESC, p.value
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("repo.SQLiteScheduleRepo.ProjectUsage: %w", err)
	}
	defer rows.Close()

	out := []domain.ProjectUsage{}
	for rows.Next() {
		var u domain.ProjectUsage
		if err := rows.Scan(&u.ProjectID, &u.Count, &u.TotalHours); err != nil {
			return nil, fmt.Errorf("repo.SQLiteScheduleRepo.ProjectUsage: scan: %w", err)
		}
		u.TotalHours = domain.RoundTenth(u.TotalHours)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SQLiteScheduleRepo.ProjectUsage: rows: %w", err)
	}
	return out, nil
}

// sqliteWhere renders f as a WHERE clause with positional arguments.
// Timestamps bind as unix milliseconds to match the column encoding.
func sqliteWhere(f domain.ScheduleFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	for _, p := range predicates(f) {
		conds = append(conds, fmt.Sprintf("%s %s ?", p.field.sqlColumn(), p.op.sql()))
		if t, ok := p.value.(time.Time); ok {
			args = append(args, unixMillis(t))
			continue
		}
		args = append(args, p.value)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanSQLiteSchedule(sc scanner) (domain.Schedule, error) {
	var (
		s                                  domain.Schedule
		projects, selected, used           string
		createdAt, expiresAt, lastViewedAt int64
	)
	err := sc.Scan(
		&s.ShareID, &s.PersonName, &s.PersonEmail, &s.SelectedProject, &projects,
		&selected, &createdAt, &expiresAt, &s.UserTimezone, &s.ViewCount,
		&lastViewedAt, &s.Analytics.TotalHours, &s.Analytics.DaysSelected, &used,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Schedule{}, domain.ErrNotFound
		}
		return domain.Schedule{}, err
	}
	doc := scheduleJSON{projects: []byte(projects), selectedDates: []byte(selected), projectsUsed: []byte(used)}
	if err := doc.decodeInto(&s); err != nil {
		return domain.Schedule{}, err
	}
	s.CreatedAt = fromUnixMillis(createdAt)
	s.ExpiresAt = fromUnixMillis(expiresAt)
	s.LastViewedAt = fromUnixMillis(lastViewedAt)
	return s, nil
}

func isSQLiteConstraint(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}

func unixMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
