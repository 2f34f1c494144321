// Package services implements the signup, login, whoami and logout flows on
// top of the credential store, the password hasher and the token service.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// Client-facing auth failure messages.
const (
	MsgInvalidEmail       = "Invalid email"
	MsgInvalidPassword    = "Invalid password"
	MsgInvalidCredentials = "Invalid email or password"
	MsgNoToken            = "No token found"
	MsgInvalidToken       = "Invalid token"
)

// Store hands out the shared credential store handle.
type Store interface {
	Get(ctx context.Context) (*sql.DB, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	NeedsRehash(digest string) bool
}

// Tokens issues, verifies and revokes session tokens.
type Tokens interface {
	Issue(ctx context.Context, id auth.Identity) (string, error)
	Verify(ctx context.Context, token string) (*auth.Claims, bool)
	Revoke(ctx context.Context, token string) error
	Revocable() bool
}

// UserService runs the account flows.
type UserService struct {
	store       Store
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      Tokens
	logger      logging.Logger

	// distinctLoginErrors reports an unknown email and a wrong password
	// differently. Off by default: the distinction reveals which emails
	// have accounts.
	distinctLoginErrors bool
}

// Option customises a UserService.
type Option func(*UserService)

// WithDistinctLoginErrors toggles separate "Invalid email" and
// "Invalid password" login failures.
func WithDistinctLoginErrors(on bool) Option {
	return func(s *UserService) { s.distinctLoginErrors = on }
}

func NewUserService(store Store, m repomanager.RepositoryManager, h PasswordHasher, t Tokens, l logging.Logger, opts ...Option) *UserService {
	s := &UserService{
		store:       store,
		repomanager: m,
		hasher:      h,
		tokens:      t,
		logger:      l.With("module", "user_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates an account. It does not log the user in.
//
// The email pre-check only saves a hash on the common path. The password is
// hashed before the transaction opens, so no connection is held during it.
// The store's unique constraint decides concurrent signups for the same
// email, and both outcomes surface as common.ErrorAlreadyExists.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	db, err := s.store.Get(ctx)
	if err != nil {
		return err
	}

	if err := s.ensureEmailFree(ctx, s.repomanager.Users(db), req.Email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if err := s.ensureEmailFree(ctx, repo, req.Email); err != nil {
			return err
		}

		user, err := repo.Create(ctx, &models.User{Name: req.Name, Email: req.Email, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrorAlreadyExists
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		s.logger.Info(ctx, "user signed up", "user_id", user.ID)
		return nil
	})
}

func (s *UserService) ensureEmailFree(ctx context.Context, repo users.Repository, email string) error {
	_, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return common.ErrorAlreadyExists
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return fmt.Errorf("error searching user: %w", err)
	}
}

// Login checks the credentials and returns a fresh session token.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	db, err := s.store.Get(ctx)
	if err != nil {
		return "", err
	}

	user, err := s.repomanager.Users(db).FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", s.loginFailure(MsgInvalidEmail)
		}
		return "", fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return "", s.loginFailure(MsgInvalidPassword)
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.logger.Debug(ctx, "password hash below current cost", "user_id", user.ID)
	}

	token, err := s.tokens.Issue(ctx, auth.Identity{Subject: user.ID, Email: user.Email})
	if err != nil {
		return "", fmt.Errorf("error issuing token: %w", err)
	}

	return token, nil
}

func (s *UserService) loginFailure(msg string) error {
	if !s.distinctLoginErrors {
		msg = MsgInvalidCredentials
	}
	return common.NewAuthError(msg)
}

// WhoAmI resolves a session token to the profile of its user. The user is
// looked up by the email claim, so a stale claim yields common.ErrorNotFound.
func (s *UserService) WhoAmI(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, common.NewAuthError(MsgNoToken)
	}

	claims, ok := s.tokens.Verify(ctx, token)
	if !ok {
		return nil, common.NewAuthError(MsgInvalidToken)
	}

	db, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(db).FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("user not found: %w", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	return &Profile{Name: user.Name, Email: user.Email}, nil
}

// Logout revokes token where the token service supports it. An empty or
// invalid token is not an error: the caller is logged out either way.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if !s.tokens.Revocable() {
		s.logger.Debug(ctx, "no revocation list, token stays valid until expiry")
		return nil
	}
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}
