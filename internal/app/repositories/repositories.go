package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/db"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// psql builds PostgreSQL statements with numbered placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// IRegistrationRepository defines student registration persistence
type IRegistrationRepository interface {
	Create(ctx context.Context, reg *models.StudentRegistration) error
	GetByUserID(ctx context.Context, userID int64) (*models.StudentRegistration, error)
	ExistsForUser(ctx context.Context, userID int64) (bool, error)
	Update(ctx context.Context, reg *models.StudentRegistration) error
	GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*models.StudentRegistration, error)
}

// IApplicationRepository defines persistence for every application variant
type IApplicationRepository interface {
	// HasPending reports whether the user holds a pending application of type t.
	HasPending(ctx context.Context, userID int64, t models.ApplicationType) (bool, error)

	// CreatePending inserts app unless the user already holds a pending
	// application of the same type, in which case it returns
	// apperrors.ErrDuplicatePendingApplication.
	CreatePending(ctx context.Context, app *models.Application) error

	FindByID(ctx context.Context, t models.ApplicationType, id uuid.UUID) (*models.Application, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Application, error)
	ListAll(ctx context.Context) ([]*models.ApplicationWithOwner, error)
	UpdateStatus(ctx context.Context, t models.ApplicationType, id uuid.UUID, status models.ApplicationStatus, reason *string, decidedAt *time.Time) (*models.Application, error)
	SetBookAllocation(ctx context.Context, id uuid.UUID, allocation *models.BookAllocation) (*models.Application, error)
	Delete(ctx context.Context, t models.ApplicationType, id uuid.UUID) error
	FindByBookNumber(ctx context.Context, number string) ([]*models.Application, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	RegistrationRepository *RegistrationRepository
	ApplicationRepository  *ApplicationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(database.Pool),
		RegistrationRepository: NewRegistrationRepository(database.Pool),
		ApplicationRepository:  NewApplicationRepository(database),
	}
}
