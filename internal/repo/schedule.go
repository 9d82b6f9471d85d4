// Package repo contains all storage access for the QuickAvail API.
// ScheduleRepo has three implementations: Postgres (the default), SQLite for
// single-node deployments and tests, and MongoDB. No business logic lives
// here, only queries and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quickavail/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ScheduleRepo defines the persistence operations for availability schedules.
// The service layer depends on this interface, never on a concrete backend.
type ScheduleRepo interface {
	// Create inserts a new schedule. Returns domain.ErrConflict if the share id
	// is already taken.
	Create(ctx context.Context, s domain.Schedule) error

	// GetByShareID retrieves a schedule whether or not it has expired.
	// Returns domain.ErrNotFound if no schedule with that id exists.
	GetByShareID(ctx context.Context, shareID string) (domain.Schedule, error)

	// RecordView atomically increments the view count, stamps lastViewedAt and
	// returns the new count. Returns domain.ErrNotFound if the id is unknown.
	RecordView(ctx context.Context, shareID string, at time.Time) (int, error)

	// Count returns the number of schedules matching f.
	Count(ctx context.Context, f domain.ScheduleFilter) (int64, error)

	// Sample returns up to limit matching schedules, oldest first.
	Sample(ctx context.Context, f domain.ScheduleFilter, limit int) ([]domain.ScheduleSummary, error)

	// DeleteMatching removes every schedule matching f and returns how many
	// were removed.
	DeleteMatching(ctx context.Context, f domain.ScheduleFilter) (int64, error)

	// ViewStats aggregates view counters over all schedules.
	ViewStats(ctx context.Context) (domain.ViewStats, error)

	// ActiveExpirations returns the expiration instant of every schedule that
	// expires after now.
	ActiveExpirations(ctx context.Context, now time.Time) ([]time.Time, error)

	// ProjectUsage ranks project ids by how many schedules used them.
	ProjectUsage(ctx context.Context, limit int) ([]domain.ProjectUsage, error)
}

// pgScheduleRepo is the Postgres implementation of ScheduleRepo.
type pgScheduleRepo struct {
	db db
}

// NewScheduleRepo constructs a ScheduleRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewScheduleRepo(db db) ScheduleRepo {
	return &pgScheduleRepo{db: db}
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

const scheduleColumns = `share_id, person_name, person_email, selected_project, projects,
	selected_dates, created_at, expires_at, user_timezone, view_count, last_viewed_at,
	total_hours, days_selected, projects_used`

func (r *pgScheduleRepo) Create(ctx context.Context, s domain.Schedule) error {
	const q = `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES (@share_id, @person_name, @person_email, @selected_project, @projects,
		        @selected_dates, @created_at, @expires_at, @user_timezone, @view_count,
		        @last_viewed_at, @total_hours, @days_selected, @projects_used)`

	doc, err := encodeScheduleJSON(s)
	if err != nil {
		return fmt.Errorf("repo.ScheduleRepo.Create: %w", err)
	}

	args := pgx.NamedArgs{
		"share_id":         s.ShareID,
		"person_name":      s.PersonName,
		"person_email":     s.PersonEmail,
		"selected_project": s.SelectedProject,
		"projects":         doc.projects,
		"selected_dates":   doc.selectedDates,
		"created_at":       utcMillis(s.CreatedAt),
		"expires_at":       utcMillis(s.ExpiresAt),
		"user_timezone":    s.UserTimezone,
		"view_count":       s.ViewCount,
		"last_viewed_at":   utcMillis(s.LastViewedAt),
		"total_hours":      s.Analytics.TotalHours,
		"days_selected":    s.Analytics.DaysSelected,
		"projects_used":    doc.projectsUsed,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("repo.ScheduleRepo.Create: %w", domain.ErrConflict)
		}
		return fmt.Errorf("repo.ScheduleRepo.Create: %w", err)
	}
	return nil
}

func (r *pgScheduleRepo) GetByShareID(ctx context.Context, shareID string) (domain.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM schedules WHERE share_id = @share_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"share_id": shareID})
	s, err := scanSchedule(row)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("repo.ScheduleRepo.GetByShareID: %w", err)
	}
	return s, nil
}

func (r *pgScheduleRepo) RecordView(ctx context.Context, shareID string, at time.Time) (int, error) {
	const q = `
		UPDATE schedules
		SET view_count     = view_count + 1,
		    last_viewed_at = @viewed_at
		WHERE share_id = @share_id
		RETURNING view_count`

	var count int
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"share_id": shareID, "viewed_at": utcMillis(at)}).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("repo.ScheduleRepo.RecordView: %w", domain.ErrNotFound)
		}
		return 0, fmt.Errorf("repo.ScheduleRepo.RecordView: %w", err)
	}
	return count, nil
}

func (r *pgScheduleRepo) Count(ctx context.Context, f domain.ScheduleFilter) (int64, error) {
	where, args := pgWhere(f)

	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM schedules`+where, args).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.ScheduleRepo.Count: %w", err)
	}
	return n, nil
}

func (r *pgScheduleRepo) Sample(ctx context.Context, f domain.ScheduleFilter, limit int) ([]domain.ScheduleSummary, error) {
	where, args := pgWhere(f)
	args["limit"] = limit
	q := `
		SELECT share_id, person_name, created_at, expires_at, view_count
		FROM schedules` + where + `
		ORDER BY created_at, share_id
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ScheduleRepo.Sample: %w", err)
	}
	defer rows.Close()

	out := []domain.ScheduleSummary{}
	for rows.Next() {
		var s domain.ScheduleSummary
		if err := rows.Scan(&s.ShareID, &s.PersonName, &s.CreatedAt, &s.ExpiresAt, &s.ViewCount); err != nil {
			return nil, fmt.Errorf("repo.ScheduleRepo.Sample: scan: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		s.ExpiresAt = s.ExpiresAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ScheduleRepo.Sample: rows: %w", err)
	}
	return out, nil
}

func (r *pgScheduleRepo) DeleteMatching(ctx context.Context, f domain.ScheduleFilter) (int64, error) {
	where, args := pgWhere(f)

	tag, err := r.db.Exec(ctx, `DELETE FROM schedules`+where, args)
	if err != nil {
		return 0, fmt.Errorf("repo.ScheduleRepo.DeleteMatching: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgScheduleRepo) ViewStats(ctx context.Context) (domain.ViewStats, error) {
	const q = `
		SELECT COALESCE(SUM(view_count), 0)::bigint,
		       COALESCE(AVG(view_count), 0)::float8,
		       COALESCE(MAX(view_count), 0)::bigint,
		       COUNT(*) FILTER (WHERE view_count > 1)
		FROM schedules`

	var st domain.ViewStats
	err := r.db.QueryRow(ctx, q).Scan(&st.TotalViews, &st.AverageViews, &st.MaxViews, &st.SchedulesWithViews)
	if err != nil {
		return domain.ViewStats{}, fmt.Errorf("repo.ScheduleRepo.ViewStats: %w", err)
	}
	return st, nil
}

func (r *pgScheduleRepo) ActiveExpirations(ctx context.Context, now time.Time) ([]time.Time, error) {
	const q = `SELECT expires_at FROM schedules WHERE expires_at > @now ORDER BY expires_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"now": now.UTC()})
	if err != nil {
		return nil, fmt.Errorf("repo.ScheduleRepo.ActiveExpirations: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("repo.ScheduleRepo.ActiveExpirations: scan: %w", err)
		}
		out = append(out, t.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ScheduleRepo.ActiveExpirations: rows: %w", err)
	}
	return out, nil
}

func (r *pgScheduleRepo) ProjectUsage(ctx context.Context, limit int) ([]domain.ProjectUsage, error) {
	const q = `
		SELECT p.project_id, COUNT(*), COALESCE(SUM(s.total_hours), 0)::float8
		FROM schedules s
		CROSS JOIN LATERAL jsonb_array_elements_text(s.projects_used) AS p(project_id)
		GROUP BY p.project_id
		ORDER BY COUNT(*) DESC, p.project_id
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.ScheduleRepo.ProjectUsage: %w", err)
	}
	defer rows.Close()

	out := []domain.ProjectUsage{}
	for rows.Next() {
		var u domain.ProjectUsage
		if err := rows.Scan(&u.ProjectID, &u.Count, &u.TotalHours); err != nil {
			return nil, fmt.Errorf("repo.ScheduleRepo.ProjectUsage: scan: %w", err)
		}
		u.TotalHours = domain.RoundTenth(u.TotalHours)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ScheduleRepo.ProjectUsage: rows: %w", err)
	}
	return out, nil
}

// pgWhere renders f as a WHERE clause with named arguments p0, p1, ...
// An empty filter renders as an empty string.
func pgWhere(f domain.ScheduleFilter) (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{}
	var conds []string
	for i, p := range predicates(f) {
		name := "p" + strconv.Itoa(i)
		conds = append(conds, fmt.Sprintf("%s %s @%s", p.field.sqlColumn(), p.op.sql(), name))
		args[name] = p.value
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scheduleJSON holds the JSON-encoded columns of a schedule row.
type scheduleJSON struct {
	projects      []byte
	selectedDates []byte
	projectsUsed  []byte
}

func encodeScheduleJSON(s domain.Schedule) (scheduleJSON, error) {
	var (
		doc scheduleJSON
		err error
	)
	projects := s.Projects
	if projects == nil {
		projects = []domain.Project{}
	}
	if doc.projects, err = json.Marshal(projects); err != nil {
		return scheduleJSON{}, fmt.Errorf("encode projects: %w", err)
	}
	if doc.selectedDates, err = json.Marshal(s.SelectedDates); err != nil {
		return scheduleJSON{}, fmt.Errorf("encode selected dates: %w", err)
	}
	used := s.Analytics.ProjectsUsed
	if used == nil {
		used = []string{}
	}
	if doc.projectsUsed, err = json.Marshal(used); err != nil {
		return scheduleJSON{}, fmt.Errorf("encode projects used: %w", err)
	}
	return doc, nil
}

func (doc scheduleJSON) decodeInto(s *domain.Schedule) error {
	if err := json.Unmarshal(doc.projects, &s.Projects); err != nil {
		return fmt.Errorf("decode projects: %w", err)
	}
	if err := json.Unmarshal(doc.selectedDates, &s.SelectedDates); err != nil {
		return fmt.Errorf("decode selected dates: %w", err)
	}
	if err := json.Unmarshal(doc.projectsUsed, &s.Analytics.ProjectsUsed); err != nil {
		return fmt.Errorf("decode projects used: %w", err)
	}
	return nil
}

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanSchedule maps a Postgres row selected with scheduleColumns.
func scanSchedule(sc scanner) (domain.Schedule, error) {
	var (
		s   domain.Schedule
		doc scheduleJSON
	)
	err := sc.Scan(
		&s.ShareID, &s.PersonName, &s.PersonEmail, &s.SelectedProject, &doc.projects,
		&doc.selectedDates, &s.CreatedAt, &s.ExpiresAt, &s.UserTimezone, &s.ViewCount,
		&s.LastViewedAt, &s.Analytics.TotalHours, &s.Analytics.DaysSelected, &doc.projectsUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Schedule{}, domain.ErrNotFound
		}
		return domain.Schedule{}, err
	}
	if err := doc.decodeInto(&s); err != nil {
		return domain.Schedule{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.LastViewedAt = s.LastViewedAt.UTC()
	return s, nil
}
