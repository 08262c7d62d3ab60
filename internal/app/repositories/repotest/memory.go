// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/repositories"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

var (
	_ repositories.IUserRepository         = (*Users)(nil)
	_ repositories.IRegistrationRepository = (*Registrations)(nil)
	_ repositories.IApplicationRepository  = (*Applications)(nil)
)

// Users is an in-memory IUserRepository.
type Users struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
}

// NewUsers creates an empty user store.
func NewUsers() *Users {
	return &Users{byID: make(map[int64]*models.User)}
}

func (u *Users) Create(_ context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.byID {
		if existing.Username == user.Username {
			return apperrors.ErrUsernameTaken
		}
	}
	u.nextID++
	user.ID = u.nextID
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	u.byID[user.ID] = &stored
	return nil
}

func (u *Users) GetByID(_ context.Context, id int64) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	out := *user
	return &out, nil
}

func (u *Users) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.Username == username {
			out := *user
			return &out, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (u *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := u.GetByUsername(ctx, username)
	return err == nil, nil
}

// Registrations is an in-memory IRegistrationRepository.
type Registrations struct {
	mu     sync.Mutex
	nextID int64
	byUser map[int64]*models.StudentRegistration
}

// NewRegistrations creates an empty registration store.
func NewRegistrations() *Registrations {
	return &Registrations{byUser: make(map[int64]*models.StudentRegistration)}
}

func (r *Registrations) Create(_ context.Context, reg *models.StudentRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[reg.UserID]; ok {
		return apperrors.ErrRegistrationExists
	}
	r.nextID++
	reg.ID = r.nextID
	now := time.Now().UTC()
	reg.CreatedAt, reg.UpdatedAt = now, now
	stored := *reg
	r.byUser[reg.UserID] = &stored
	return nil
}

func (r *Registrations) GetByUserID(_ context.Context, userID int64) (*models.StudentRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byUser[userID]
	if !ok {
		return nil, apperrors.ErrRegistrationNotFound
	}
	out := *reg
	return &out, nil
}

func (r *Registrations) ExistsForUser(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byUser[userID]
	return ok, nil
}

func (r *Registrations) Update(_ context.Context, reg *models.StudentRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byUser[reg.UserID]
	if !ok {
		return apperrors.ErrRegistrationNotFound
	}
	reg.ID = existing.ID
	reg.CreatedAt = existing.CreatedAt
	reg.UpdatedAt = time.Now().UTC()
	stored := *reg
	r.byUser[reg.UserID] = &stored
	return nil
}

func (r *Registrations) GetByUserIDs(_ context.Context, userIDs []int64) (map[int64]*models.StudentRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]*models.StudentRegistration, len(userIDs))
	for _, id := range userIDs {
		if reg, ok := r.byUser[id]; ok {
			copied := *reg
			out[id] = &copied
		}
	}
	return out, nil
}

// Applications is an in-memory IApplicationRepository. Usernames resolves
// owners for ListAll.
type Applications struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Application
	Usernames map[int64]string

	// CreateErr, when set, is returned by CreatePending.
	CreateErr error
}

// NewApplications creates an empty application store.
func NewApplications() *Applications {
	return &Applications{
		byID:      make(map[uuid.UUID]*models.Application),
		Usernames: make(map[int64]string),
	}
}

func clone(app *models.Application) *models.Application {
	out := *app
	if app.Documents != nil {
		out.Documents = make(map[string]models.DocumentRef, len(app.Documents))
		for k, v := range app.Documents {
			out.Documents[k] = v
		}
	}
	if app.Travel != nil {
		travel := *app.Travel
		out.Travel = &travel
	}
	if app.StudyBooks != nil {
		books := *app.StudyBooks
		out.StudyBooks = &books
	}
	if app.Allocation != nil {
		allocation := *app.Allocation
		allocation.BookNumbers = make(map[string]string, len(app.Allocation.BookNumbers))
		for k, v := range app.Allocation.BookNumbers {
			allocation.BookNumbers[k] = v
		}
		out.Allocation = &allocation
	}
	return &out
}

func (a *Applications) hasPending(userID int64, t models.ApplicationType) bool {
	for _, app := range a.byID {
		if app.UserID == userID && app.Type == t && app.IsPending() {
			return true
		}
	}
	return false
}

func (a *Applications) HasPending(_ context.Context, userID int64, t models.ApplicationType) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasPending(userID, t), nil
}

func (a *Applications) CreatePending(_ context.Context, app *models.Application) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.CreateErr != nil {
		return a.CreateErr
	}
	if a.hasPending(app.UserID, app.Type) {
		return apperrors.ErrDuplicatePendingApplication
	}
	a.byID[app.ID] = clone(app)
	return nil
}

// Put stores app as is, bypassing the pending check.
func (a *Applications) Put(app *models.Application) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byID[app.ID] = clone(app)
}

// Len returns the number of stored applications.
func (a *Applications) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byID)
}

func (a *Applications) FindByID(_ context.Context, t models.ApplicationType, id uuid.UUID) (*models.Application, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.byID[id]
	if !ok || app.Type != t {
		return nil, apperrors.ErrApplicationNotFound
	}
	return clone(app), nil
}

func (a *Applications) ListByUser(_ context.Context, userID int64) ([]*models.Application, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*models.Application
	for _, app := range a.byID {
		if app.UserID == userID {
			out = append(out, clone(app))
		}
	}
	return out, nil
}

func (a *Applications) ListAll(_ context.Context) ([]*models.ApplicationWithOwner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*models.ApplicationWithOwner, 0, len(a.byID))
	for _, app := range a.byID {
		out = append(out, &models.ApplicationWithOwner{
			Application: *clone(app),
			Username:    a.Usernames[app.UserID],
		})
	}
	return out, nil
}

func (a *Applications) UpdateStatus(_ context.Context, t models.ApplicationType, id uuid.UUID, status models.ApplicationStatus, reason *string, decidedAt *time.Time) (*models.Application, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.byID[id]
	if !ok || app.Type != t {
		return nil, apperrors.ErrApplicationNotFound
	}
	app.Status = status
	app.RejectionReason = reason
	app.RejectionDate = decidedAt
	return clone(app), nil
}

func (a *Applications) SetBookAllocation(_ context.Context, id uuid.UUID, allocation *models.BookAllocation) (*models.Application, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.byID[id]
	if !ok || app.Type != models.ApplicationTypeStudyBooks {
		return nil, apperrors.ErrApplicationNotFound
	}
	app.Allocation = allocation
	stored := clone(app)
	a.byID[id] = stored
	return clone(stored), nil
}

func (a *Applications) Delete(_ context.Context, t models.ApplicationType, id uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.byID[id]
	if !ok || app.Type != t {
		return apperrors.ErrApplicationNotFound
	}
	delete(a.byID, id)
	return nil
}

func (a *Applications) FindByBookNumber(_ context.Context, number string) ([]*models.Application, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*models.Application
	for _, app := range a.byID {
		if app.Type != models.ApplicationTypeStudyBooks || app.Allocation == nil {
			continue
		}
		for _, n := range app.Allocation.BookNumbers {
			if n == number {
				out = append(out, clone(app))
				break
			}
		}
	}
	return out, nil
}
