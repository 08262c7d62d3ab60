package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/db"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
	"github.com/yigit/scholarship/internal/pkg/dberrors"
	"github.com/yigit/scholarship/internal/pkg/logger"
)

var applicationBaseColumns = []string{
	"id", "user_id", "application_type", "status", "rejection_reason", "rejection_date", "documents", "created_at",
}

// applicationTable describes the physical table backing one variant.
type applicationTable struct {
	name           string
	variantColumns []string
}

var applicationTables = map[models.ApplicationType]applicationTable{
	models.ApplicationTypeSchoolFees: {
		name: "school_fees_applications",
	},
	models.ApplicationTypeTravelExpenses: {
		name:           "travel_expenses_applications",
		variantColumns: []string{"residence_place", "destination_place", "distance", "travel_mode", "aid_required"},
	},
	models.ApplicationTypeStudyBooks: {
		name:           "study_books_applications",
		variantColumns: []string{"year_of_study", "field", "books_required", "book_allocation"},
	},
}

func tableFor(t models.ApplicationType) (applicationTable, error) {
	table, ok := applicationTables[t]
	if !ok {
		return applicationTable{}, fmt.Errorf("unknown application type %q", t)
	}
	return table, nil
}

// columns returns the select list, optionally qualified with alias.
func (t applicationTable) columns(alias string) []string {
	cols := make([]string, 0, len(applicationBaseColumns)+len(t.variantColumns))
	cols = append(cols, applicationBaseColumns...)
	cols = append(cols, t.variantColumns...)
	if alias == "" {
		return cols
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return cols
}

// pendingIndex names the partial unique index allowing one pending row per user.
func (t applicationTable) pendingIndex() string {
	return t.name + "_one_pending"
}

// ApplicationRepository persists the three application variants.
type ApplicationRepository struct {
	db *db.PostgresDB
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(database *db.PostgresDB) *ApplicationRepository {
	return &ApplicationRepository{db: database}
}

// scanApplication reads one row laid out as table.columns. extra receives any
// trailing columns appended to the select list.
func scanApplication(row pgx.Row, t models.ApplicationType, extra ...any) (*models.Application, error) {
	app := &models.Application{}
	var documents []byte
	dest := []any{
		&app.ID, &app.UserID, &app.Type, &app.Status,
		&app.RejectionReason, &app.RejectionDate, &documents, &app.CreatedAt,
	}

	var travel models.TravelExpensesDetails
	var books models.StudyBooksDetails
	var allocation []byte
	switch t {
	case models.ApplicationTypeTravelExpenses:
		dest = append(dest, &travel.ResidencePlace, &travel.DestinationPlace, &travel.Distance, &travel.TravelMode, &travel.AidRequired)
	case models.ApplicationTypeStudyBooks:
		dest = append(dest, &books.YearOfStudy, &books.Field, &books.BooksRequired, &allocation)
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if len(documents) > 0 {
		if err := json.Unmarshal(documents, &app.Documents); err != nil {
			return nil, fmt.Errorf("failed to decode documents of application %s: %w", app.ID, err)
		}
	}

	switch t {
	case models.ApplicationTypeTravelExpenses:
		app.Travel = &travel
	case models.ApplicationTypeStudyBooks:
		app.StudyBooks = &books
		if len(allocation) > 0 {
			app.Allocation = &models.BookAllocation{}
			if err := json.Unmarshal(allocation, app.Allocation); err != nil {
				return nil, fmt.Errorf("failed to decode allocation of application %s: %w", app.ID, err)
			}
		}
	}

	return app, nil
}

func (r *ApplicationRepository) hasPending(ctx context.Context, q querier, userID int64, t models.ApplicationType) (bool, error) {
	table, err := tableFor(t)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE user_id = $1 AND status = $2)`, table.name)
	if err := q.QueryRow(ctx, query, userID, models.StatusPending).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking pending applications: %w", err)
	}
	return exists, nil
}

// HasPending reports whether the user holds a pending application of type t.
func (r *ApplicationRepository) HasPending(ctx context.Context, userID int64, t models.ApplicationType) (bool, error) {
	return r.hasPending(ctx, r.db.Pool, userID, t)
}

// CreatePending serializes submissions per user and type with a transaction
// scoped advisory lock, re-checks for a pending application and inserts.
func (r *ApplicationRepository) CreatePending(ctx context.Context, app *models.Application) error {
	table, err := tableFor(app.Type)
	if err != nil {
		return err
	}

	documents, err := json.Marshal(app.Documents)
	if err != nil {
		return fmt.Errorf("failed to encode documents: %w", err)
	}
	if app.Documents == nil {
		documents = []byte("{}")
	}

	columns := []string{"id", "user_id", "application_type", "status", "documents", "created_at"}
	values := []interface{}{app.ID, app.UserID, app.Type, app.Status, documents, app.CreatedAt}
	switch app.Type {
	case models.ApplicationTypeTravelExpenses:
		if app.Travel == nil {
			return fmt.Errorf("travel expenses application %s has no details", app.ID)
		}
		columns = append(columns, "residence_place", "destination_place", "distance", "travel_mode", "aid_required")
		values = append(values, app.Travel.ResidencePlace, app.Travel.DestinationPlace, app.Travel.Distance, app.Travel.TravelMode, app.Travel.AidRequired)
	case models.ApplicationTypeStudyBooks:
		if app.StudyBooks == nil {
			return fmt.Errorf("study books application %s has no details", app.ID)
		}
		columns = append(columns, "year_of_study", "field", "books_required")
		values = append(values, app.StudyBooks.YearOfStudy, app.StudyBooks.Field, app.StudyBooks.BooksRequired)
	}

	sql, args, err := psql.Insert(table.name).Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	lockKey := fmt.Sprintf("application:%s:%d", app.Type, app.UserID)
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return fmt.Errorf("failed to acquire submission lock: %w", err)
		}

		pending, err := r.hasPending(ctx, tx, app.UserID, app.Type)
		if err != nil {
			return err
		}
		if pending {
			return apperrors.ErrDuplicatePendingApplication
		}

		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			if dberrors.IsDuplicateConstraintError(err, table.pendingIndex()) {
				return apperrors.ErrDuplicatePendingApplication
			}
			logger.Error().Err(err).Str("applicationID", app.ID.String()).Str("type", string(app.Type)).Msg("Error inserting application")
			return fmt.Errorf("error creating application: %w", err)
		}
		return nil
	})
}

// FindByID loads one application of type t.
func (r *ApplicationRepository) FindByID(ctx context.Context, t models.ApplicationType, id uuid.UUID) (*models.Application, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}

	sql, args, err := psql.Select(table.columns("")...).
		From(table.name).
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}

	app, err := scanApplication(r.db.Pool.QueryRow(ctx, sql, args...), t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error getting application: %w", err)
	}
	return app, nil
}

func (r *ApplicationRepository) list(ctx context.Context, t models.ApplicationType, where squirrel.Sqlizer) ([]*models.Application, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}

	qb := psql.Select(table.columns("")...).From(table.name).OrderBy("created_at DESC", "id DESC")
	if where != nil {
		qb = qb.Where(where)
	}
	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list applications query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", table.name, err)
	}
	defer rows.Close()

	apps := []*models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows, t)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s row: %w", table.name, err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table.name, err)
	}
	return apps, nil
}

// ListByUser returns the user's applications of every type.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Application, error) {
	var all []*models.Application
	for _, t := range models.ApplicationTypes {
		apps, err := r.list(ctx, t, squirrel.Eq{"user_id": userID})
		if err != nil {
			return nil, err
		}
		all = append(all, apps...)
	}
	return all, nil
}

// ListAll returns every application joined with its owner's username.
func (r *ApplicationRepository) ListAll(ctx context.Context) ([]*models.ApplicationWithOwner, error) {
	all := []*models.ApplicationWithOwner{}
	for _, t := range models.ApplicationTypes {
		table, err := tableFor(t)
		if err != nil {
			return nil, err
		}

		sql, args, err := psql.Select(append(table.columns("a"), "u.username")...).
			From(table.name + " a").
			Join("users u ON u.id = a.user_id").
			OrderBy("a.created_at DESC", "a.id DESC").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build list all applications query: %w", err)
		}

		rows, err := r.db.Pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("error querying %s: %w", table.name, err)
		}

		for rows.Next() {
			var username string
			app, err := scanApplication(rows, t, &username)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("error scanning %s row: %w", table.name, err)
			}
			all = append(all, &models.ApplicationWithOwner{Application: *app, Username: username})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating %s rows: %w", table.name, err)
		}
	}
	return all, nil
}

// UpdateStatus records an administrative decision. Payload and documents are
// never touched.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, t models.ApplicationType, id uuid.UUID, status models.ApplicationStatus, reason *string, decidedAt *time.Time) (*models.Application, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}

	sql, args, err := psql.Update(table.name).
		Set("status", status).
		Set("rejection_reason", reason).
		Set("rejection_date", decidedAt).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(table.columns(""), ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update status query: %w", err)
	}

	app, err := scanApplication(r.db.Pool.QueryRow(ctx, sql, args...), t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error updating application status: %w", err)
	}
	return app, nil
}

// SetBookAllocation stores the allocation of a study books application.
func (r *ApplicationRepository) SetBookAllocation(ctx context.Context, id uuid.UUID, allocation *models.BookAllocation) (*models.Application, error) {
	table, err := tableFor(models.ApplicationTypeStudyBooks)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(allocation)
	if err != nil {
		return nil, fmt.Errorf("failed to encode allocation: %w", err)
	}

	sql, args, err := psql.Update(table.name).
		Set("book_allocation", encoded).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(table.columns(""), ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build allocation query: %w", err)
	}

	app, err := scanApplication(r.db.Pool.QueryRow(ctx, sql, args...), models.ApplicationTypeStudyBooks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error storing allocation: %w", err)
	}
	return app, nil
}

// Delete removes an application row.
func (r *ApplicationRepository) Delete(ctx context.Context, t models.ApplicationType, id uuid.UUID) error {
	table, err := tableFor(t)
	if err != nil {
		return err
	}

	sql, args, err := psql.Delete(table.name).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete application query: %w", err)
	}

	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// FindByBookNumber returns study books applications whose allocation assigns number to any book.
func (r *ApplicationRepository) FindByBookNumber(ctx context.Context, number string) ([]*models.Application, error) {
	return r.list(ctx, models.ApplicationTypeStudyBooks, squirrel.And{
		squirrel.Expr("book_allocation IS NOT NULL"),
		squirrel.Expr("EXISTS (SELECT 1 FROM jsonb_each_text(book_allocation->'bookNumbers') AS b(book_name, book_number) WHERE b.book_number = ?)", number),
	})
}
