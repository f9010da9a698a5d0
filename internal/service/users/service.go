package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/auth"
	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
	"github.com/mamadbah2/canebill/internal/service/access"
	"github.com/mamadbah2/canebill/internal/service/activity"
)

// Session is a successful login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// CreateInput describes a new account.
type CreateInput struct {
	Username string
	Password string
	Role     models.Role
}

// UpdateInput is a partial account patch; empty fields are unchanged.
type UpdateInput struct {
	Username string
	Password string
	Role     models.Role
}

// SeedConfig names the accounts created by Seed and the super root identity.
type SeedConfig struct {
	AdminPassword     string
	RootPassword      string
	SuperRootUsername string
	SuperRootPassword string
}

// SeedResult lists the usernames Seed created.
type SeedResult struct {
	Created []string `json:"created"`
}

// Service manages accounts and sessions.
type Service struct {
	repo   repository.UserRepository
	tokens *auth.TokenManager
	seed   SeedConfig
	audit  activity.Recorder
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the account service.
func NewService(repo repository.UserRepository, tokens *auth.TokenManager, seed SeedConfig, audit activity.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = activity.Nop{}
	}
	return &Service{repo: repo, tokens: tokens, seed: seed, audit: audit, logger: logger, now: time.Now}
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return Session{}, models.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	s.audit.Record(ctx, models.ActorFromUser(user), models.ActionLogin, "User logged in")
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout records the end of a session. Tokens expire on their own.
func (s *Service) Logout(ctx context.Context, actor models.Actor) {
	s.audit.Record(ctx, actor, models.ActionLogout, "User logged out")
}

// Me returns the actor's stored profile.
func (s *Service) Me(ctx context.Context, actor models.Actor) (models.User, error) {
	if err := access.Authorize(actor, access.ProfileRead); err != nil {
		return models.User{}, err
	}
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return models.User{}, notFound(err, actor.ID)
	}
	return user, nil
}

// Seed creates the default admin and root accounts when missing. Accounts
// whose password is not configured are skipped.
func (s *Service) Seed(ctx context.Context) (SeedResult, error) {
	result := SeedResult{Created: []string{}}
	for _, acc := range []struct {
		username string
		password string
		role     models.Role
	}{
		{"admin", s.seed.AdminPassword, models.RoleAdmin},
		{"root", s.seed.RootPassword, models.RoleRoot},
	} {
		if acc.password == "" {
			s.logger.Debug("seed password not configured", zap.String("username", acc.username))
			continue
		}
		created, err := s.ensure(ctx, acc.username, acc.password, acc.role, false)
		if err != nil {
			return result, err
		}
		if created {
			result.Created = append(result.Created, acc.username)
		}
	}
	return result, nil
}

// EnsureSuperRoot creates the configured super root when a password is
// configured and the account does not exist yet. An existing account is
// flagged only when it already is, or when it holds the configured password.
func (s *Service) EnsureSuperRoot(ctx context.Context) error {
	username := strings.TrimSpace(s.seed.SuperRootUsername)
	if username == "" {
		return nil
	}

	user, err := s.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if s.seed.SuperRootPassword == "" {
			s.logger.Warn("super root account missing and no password configured", zap.String("username", username))
			return nil
		}
		_, err := s.ensure(ctx, username, s.seed.SuperRootPassword, models.RoleRoot, true)
		return err
	case err != nil:
		return fmt.Errorf("find super root: %w", err)
	}

	if !user.SuperRoot {
		// Only an account holding the configured password may be promoted.
		if s.seed.SuperRootPassword == "" || !auth.CheckPassword(user.PasswordHash, s.seed.SuperRootPassword) {
			s.logger.Warn("account named like the super root is not flagged; refusing to promote it",
				zap.String("username", username))
			return nil
		}
	} else if user.Role == models.RoleRoot {
		return nil
	}
	user.SuperRoot = true
	user.Role = models.RoleRoot
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, &user); err != nil {
		return fmt.Errorf("flag super root: %w", err)
	}
	s.logger.Info("super root flagged", zap.String("username", username))
	return nil
}

func (s *Service) ensure(ctx context.Context, username, password string, role models.Role, superRoot bool) (bool, error) {
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("find user %s: %w", username, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		SuperRoot:    superRoot,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("create user %s: %w", username, err)
	}
	s.logger.Info("seeded user", zap.String("username", username), zap.String("role", string(role)))
	return true, nil
}

// List returns every account sorted by username.
func (s *Service) List(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := access.Authorize(actor, access.UserList); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create adds an account.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (models.User, error) {
	if err := access.Authorize(actor, access.UserCreate); err != nil {
		return models.User{}, err
	}
	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		return models.User{}, models.Validationf("username is required")
	case in.Password == "":
		return models.User{}, models.Validationf("password is required")
	case !in.Role.Valid():
		return models.User{}, models.Validationf("unknown role %q", in.Role)
	}
	if err := access.AuthorizeUserCreate(actor, in.Role); err != nil {
		return models.User{}, err
	}
	if err := access.AuthorizeUsername(actor, username, s.seed.SuperRootUsername); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return models.User{}, fmt.Errorf("%w: username %s already exists", models.ErrConflict, username)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	s.audit.Record(ctx, actor, models.ActionCreateUser, fmt.Sprintf("Created user %s (%s)", user.Username, user.Role))
	return user, nil
}

// Update patches an account. Username and role of the super root never change.
func (s *Service) Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, in UpdateInput) (models.User, error) {
	if in.Role != "" && !in.Role.Valid() {
		return models.User{}, models.Validationf("unknown role %q", in.Role)
	}
	if err := access.Authorize(actor, access.UserUpdate); err != nil {
		return models.User{}, err
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, id)
	}
	if err := access.AuthorizeUserUpdate(actor, target, in.Role); err != nil {
		return models.User{}, err
	}

	if !access.ProtectedFields(target) {
		if username := strings.TrimSpace(in.Username); username != "" && username != target.Username {
			if err := access.AuthorizeUsername(actor, username, s.seed.SuperRootUsername); err != nil {
				return models.User{}, err
			}
			target.Username = username
		}
		if in.Role != "" {
			target.Role = in.Role
		}
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		target.PasswordHash = hash
	}
	target.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &target); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return models.User{}, fmt.Errorf("%w: username %s already exists", models.ErrConflict, target.Username)
		}
		return models.User{}, notFound(err, id)
	}
	s.audit.Record(ctx, actor, models.ActionUpdateUser, fmt.Sprintf("Updated user %s", target.Username))
	return target, nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if err := access.Authorize(actor, access.UserDelete); err != nil {
		return err
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, id)
	}
	if err := access.AuthorizeUserDelete(actor, target); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, id)
	}
	s.audit.Record(ctx, actor, models.ActionDeleteUser, fmt.Sprintf("Deleted user %s", target.Username))
	return nil
}

func notFound(err error, id primitive.ObjectID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: user %s", models.ErrNotFound, id.Hex())
	}
	return err
}
