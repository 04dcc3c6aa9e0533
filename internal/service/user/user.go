// Package user implements team member account management.
package user

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"avencia-pm/internal/domain"
	"avencia-pm/internal/service/activity"
)

// Service provides user operations with authorization and activity logging.
type Service struct {
	repo       domain.UserRepository
	activity   *activity.Logger
	bcryptCost int
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost. Tests use
// bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService creates a user Service.
func NewService(repo domain.UserRepository, activityLog *activity.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, activity: activityLog, bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request, hashes the password and stores the user.
// Only admins may create admins.
func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := domain.RequireRole(ctx, "create user", domain.RoleAdmin, domain.RoleManager); err != nil {
		return nil, err
	}
	if req.Role == domain.RoleAdmin {
		if err := domain.RequireRole(ctx, "create admin", domain.RoleAdmin); err != nil {
			return nil, err
		}
	}
	u, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionCreate,
		EntityType:  domain.EntityUser,
		EntityID:    u.ID,
		EntityName:  u.Name,
		Description: fmt.Sprintf("created user %s", u.Name),
		Metadata:    map[string]any{"role": u.Role},
	})
	return u, nil
}

// Register creates a member account for an unauthenticated caller. Any
// requested role is ignored.
func (s *Service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	req.Role = domain.RoleMember
	u, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.activity.Record(domain.WithPrincipal(ctx, domain.ContextPrincipal{UserID: u.ID, Email: u.Email, Role: u.Role}),
		activity.Event{
			Action:      activity.ActionCreate,
			EntityType:  domain.EntityUser,
			EntityID:    u.ID,
			EntityName:  u.Name,
			Description: fmt.Sprintf("%s registered", u.Name),
		})
	return u, nil
}

func (s *Service) create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	fields := domain.Fields{
		"name":          strings.TrimSpace(req.Name),
		"email":         email,
		"password_hash": string(hash),
	}
	domain.SetIfNotEmpty(fields, "role", req.Role)
	domain.SetIfNotNil(fields, "avatar", req.Avatar)
	domain.SetIfNotNil(fields, "department", req.Department)
	domain.SetIfNotNil(fields, "title", req.Title)
	domain.SetIfNotNil(fields, "timezone", req.Timezone)
	domain.SetIfNotNil(fields, "language", req.Language)

	u, err := s.repo.Create(ctx, fields)
	if err != nil {
		if domain.IsUniqueViolation(err) {
			return nil, domain.ErrConflict("email %q is already in use", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound("user %s not found", id)
	}
	return u, nil
}

// List returns a filtered page of users.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.User], error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return domain.NewPage(items, total, filter, 0), nil
}

// Update applies a partial update. Users may edit themselves; changing a
// role requires an admin.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := domain.RequireSelfOrAdmin(ctx, "update user", id); err != nil {
		return nil, err
	}
	if req.Role != nil {
		if err := domain.RequireRole(ctx, "change user role", domain.RoleAdmin); err != nil {
			return nil, err
		}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fields := domain.Fields{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := s.ensureEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	domain.SetIfNotNil(fields, "avatar", req.Avatar)
	domain.SetIfNotNil(fields, "role", req.Role)
	domain.SetIfNotNil(fields, "department", req.Department)
	domain.SetIfNotNil(fields, "title", req.Title)
	domain.SetIfNotNil(fields, "timezone", req.Timezone)
	domain.SetIfNotNil(fields, "language", req.Language)
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}

	u, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if domain.IsUniqueViolation(err) {
			return nil, domain.ErrConflict("email is already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound("user %s not found", id)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionUpdate,
		EntityType:  domain.EntityUser,
		EntityID:    u.ID,
		EntityName:  u.Name,
		Description: fmt.Sprintf("updated user %s", u.Name),
	})
	return u, nil
}

// UpdateStatus sets a user's presence status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error) {
	if err := domain.RequireSelfOrAdmin(ctx, "update user status", id); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.ErrValidation("status must be one of online, away, offline; got %q", string(status))
	}
	u, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update user status: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound("user %s not found", id)
	}
	return u, nil
}

// Deactivate disables an account without deleting it.
func (s *Service) Deactivate(ctx context.Context, id string) (*domain.User, error) {
	if err := domain.RequireRole(ctx, "deactivate user", domain.RoleAdmin); err != nil {
		return nil, err
	}
	u, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deactivate user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound("user %s not found", id)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionStatusChange,
		EntityType:  domain.EntityUser,
		EntityID:    u.ID,
		EntityName:  u.Name,
		Description: fmt.Sprintf("deactivated user %s", u.Name),
	})
	return u, nil
}

// Delete removes a user. Projects and tasks they created keep existing with
// the creator cleared.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := domain.RequireRole(ctx, "delete user", domain.RoleAdmin); err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !removed {
		return domain.ErrNotFound("user %s not found", id)
	}

	s.activity.Record(ctx, activity.Event{
		Action:     activity.ActionDelete,
		EntityType: domain.EntityUser,
		EntityID:   id,
	})
	return nil
}

// Authenticate checks an email and password pair and records the login.
// Unknown emails, wrong passwords and inactive accounts all fail with the
// same AccessDeniedError.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	denied := domain.ErrAccessDenied("invalid email or password")

	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if u == nil || !u.IsActive {
		return nil, denied
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, denied
	}

	if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	s.activity.Record(domain.WithPrincipal(ctx, domain.ContextPrincipal{UserID: u.ID, Email: u.Email, Role: u.Role}),
		activity.Event{
			Action:     activity.ActionLogin,
			EntityType: domain.EntityUser,
			EntityID:   u.ID,
			EntityName: u.Name,
		})
	return u, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return domain.ErrConflict("email %q is already in use", email)
	}
	return nil
}
