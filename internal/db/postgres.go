package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/store"
)

//go:embed schema.sql
var schemaSQL string

const pgUniqueViolation = "23505"

const reportColumns = `id, case_id, pin, sector, category, description, details, location, lat, lon,
	status, urgency, risk_score, flagged, admin_notes, reporter_id,
	created_at, updated_at, resolved_at, escalated_at, version`

// Store is the Postgres ReportStore.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Migrate creates the reports table and its indexes if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, r models.Report) (models.Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Version = 1
	row := s.Pool.QueryRow(ctx, `INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING `+reportColumns,
		r.ID, r.CaseID, r.PIN, string(r.Sector), r.Category, r.Description, r.Details, r.Location, r.Lat, r.Lon,
		string(r.Status), string(r.Urgency), r.RiskScore, r.Flagged, r.AdminNotes, r.ReporterID,
		r.CreatedAt, r.UpdatedAt, r.ResolvedAt, r.EscalatedAt, r.Version,
	)
	saved, err := scanReport(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.Report{}, store.ErrDuplicateCaseID
		}
		return models.Report{}, err
	}
	return saved, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.Report, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	return notFound(scanReport(row))
}

func (s *Store) FindByCaseID(ctx context.Context, caseID string) (models.Report, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE case_id = $1`, caseID)
	return notFound(scanReport(row))
}

// Update is a compare-and-set on version. A miss is resolved into
// ErrNotFound or ErrVersionConflict with a second lookup.
func (s *Store) Update(ctx context.Context, id string, expectedVersion int, patch store.Patch) (models.Report, error) {
	cols := patch.Columns()
	names := make([]string, 0, len(cols))
	for k := range cols {
		names = append(names, k)
	}
	sort.Strings(names)

	args := []any{id, expectedVersion}
	sets := make([]string, 0, len(names)+1)
	for _, name := range names {
		args = append(args, cols[name])
		sets = append(sets, fmt.Sprintf("%s = $%d", name, len(args)))
	}
	sets = append(sets, "version = version + 1")

	query := `UPDATE reports SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND version = $2 RETURNING ` + reportColumns
	updated, err := scanReport(s.Pool.QueryRow(ctx, query, args...))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Report{}, err
	}

	var exists bool
	if err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, id).Scan(&exists); err != nil {
		return models.Report{}, err
	}
	if !exists {
		return models.Report{}, store.ErrNotFound
	}
	return models.Report{}, store.ErrVersionConflict
}

func (s *Store) List(ctx context.Context, f store.Filter) ([]models.Report, error) {
	f = f.Normalize()
	query := `SELECT ` + reportColumns + ` FROM reports`
	var args []any
	var wheres []string
	if f.Status != "" {
		args = append(args, string(f.Status))
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Sector != "" {
		args = append(args, string(f.Sector))
		wheres = append(wheres, fmt.Sprintf("sector = $%d", len(args)))
	}
	if f.Urgency != "" {
		args = append(args, string(f.Urgency))
		wheres = append(wheres, fmt.Sprintf("urgency = $%d", len(args)))
	}
	if f.Flagged != nil {
		args = append(args, *f.Flagged)
		wheres = append(wheres, fmt.Sprintf("flagged = $%d", len(args)))
	}
	if f.ReporterID != "" {
		args = append(args, f.ReporterID)
		wheres = append(wheres, fmt.Sprintf("reporter_id = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReport(row pgx.Row) (models.Report, error) {
	var (
		r                       models.Report
		sector, status, urgency string
	)
	err := row.Scan(
		&r.ID, &r.CaseID, &r.PIN, &sector, &r.Category, &r.Description, &r.Details, &r.Location, &r.Lat, &r.Lon,
		&status, &urgency, &r.RiskScore, &r.Flagged, &r.AdminNotes, &r.ReporterID,
		&r.CreatedAt, &r.UpdatedAt, &r.ResolvedAt, &r.EscalatedAt, &r.Version,
	)
	if err != nil {
		return models.Report{}, err
	}
	r.Sector = models.SectorID(sector)
	r.Status = models.Status(status)
	r.Urgency = models.Urgency(urgency)
	return r, nil
}

func notFound(r models.Report, err error) (models.Report, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Report{}, store.ErrNotFound
	}
	return r, err
}
