package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
	"github.com/yigit/scholarship/internal/pkg/dberrors"
	"github.com/yigit/scholarship/internal/pkg/logger"
)

const registrationUserConstraint = "student_registrations_user_id_key"

var registrationColumns = []string{
	"id", "user_id", "full_name", "date_of_birth", "gender", "phone", "address",
	"college", "course", "caste", "is_orphan", "is_disabled", "created_at", "updated_at",
}

// RegistrationRepository handles student registration database operations
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func scanRegistration(row pgx.Row) (*models.StudentRegistration, error) {
	reg := &models.StudentRegistration{}
	err := row.Scan(
		&reg.ID, &reg.UserID, &reg.FullName, &reg.DateOfBirth, &reg.Gender, &reg.Phone, &reg.Address,
		&reg.College, &reg.Course, &reg.Caste, &reg.IsOrphan, &reg.IsDisabled, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Create inserts the registration. A second registration for the same user
// returns apperrors.ErrRegistrationExists.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.StudentRegistration) error {
	sql, args, err := psql.Insert("student_registrations").
		Columns("user_id", "full_name", "date_of_birth", "gender", "phone", "address",
			"college", "course", "caste", "is_orphan", "is_disabled").
		Values(reg.UserID, reg.FullName, reg.DateOfBirth, reg.Gender, reg.Phone, reg.Address,
			reg.College, reg.Course, reg.Caste, reg.IsOrphan, reg.IsDisabled).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create registration query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, registrationUserConstraint) {
			return apperrors.ErrRegistrationExists
		}
		logger.Error().Err(err).Int64("userID", reg.UserID).Msg("Error creating registration")
		return fmt.Errorf("error creating registration: %w", err)
	}
	return nil
}

// GetByUserID retrieves the registration owned by userID
func (r *RegistrationRepository) GetByUserID(ctx context.Context, userID int64) (*models.StudentRegistration, error) {
	sql, args, err := psql.Select(registrationColumns...).
		From("student_registrations").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get registration query: %w", err)
	}

	reg, err := scanRegistration(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("error getting registration: %w", err)
	}
	return reg, nil
}

// ExistsForUser reports whether userID already registered
func (r *RegistrationRepository) ExistsForUser(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM student_registrations WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking registration: %w", err)
	}
	return exists, nil
}

// Update rewrites the profile fields of the user's registration.
func (r *RegistrationRepository) Update(ctx context.Context, reg *models.StudentRegistration) error {
	sql, args, err := psql.Update("student_registrations").
		SetMap(map[string]interface{}{
			"full_name":     reg.FullName,
			"date_of_birth": reg.DateOfBirth,
			"gender":        reg.Gender,
			"phone":         reg.Phone,
			"address":       reg.Address,
			"college":       reg.College,
			"course":        reg.Course,
			"caste":         reg.Caste,
			"is_orphan":     reg.IsOrphan,
			"is_disabled":   reg.IsDisabled,
			"updated_at":    squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"user_id": reg.UserID}).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update registration query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrRegistrationNotFound
		}
		return fmt.Errorf("error updating registration: %w", err)
	}
	return nil
}

// GetByUserIDs loads registrations for several users keyed by user id.
func (r *RegistrationRepository) GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*models.StudentRegistration, error) {
	result := make(map[int64]*models.StudentRegistration, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	sql, args, err := psql.Select(registrationColumns...).
		From("student_registrations").
		Where(squirrel.Eq{"user_id": userIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build registrations query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning registration row: %w", err)
		}
		result[reg.UserID] = reg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return result, nil
}
