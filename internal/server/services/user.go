// Package services contains server-side business logic. This file implements
// UserService, which handles account registration with allocator-backed
// identifier assignment, login with JWT issuance, and password maintenance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/dmitrijs2005/chatgate/internal/dbx"
	"github.com/dmitrijs2005/chatgate/internal/server/auth"
	"github.com/dmitrijs2005/chatgate/internal/server/config"
	"github.com/dmitrijs2005/chatgate/internal/server/idgen"
	"github.com/dmitrijs2005/chatgate/internal/server/models"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration and
// password change.
const MinPasswordLength = 6

// maxRegisterAttempts caps how many times Register re-enters identifier
// allocation after losing an insert race on external_id.
const maxRegisterAttempts = 5

// UserService provides account-related operations:
// - Register: allocate an account identifier and create the user
// - Login: verify credentials and mint a session token
// - UpdatePassword: verify the old password and store a new hash
// - admin-facing listing of accounts
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	allocator             *idgen.Allocator
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	accountIDLength       int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, allocator *idgen.Allocator, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		allocator:             allocator,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		accountIDLength:       cfg.AccountIDLength,
	}
}

// Register creates a new account. The external identifier is drawn from the
// allocator; the insert itself is guarded by a uniqueness constraint, and an
// external_id collision there re-enters allocation instead of failing the
// registration. Duplicate username or email surfaces as a DuplicateError.
func (s *UserService) Register(ctx context.Context, name, password, email string) (*models.User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)

	for attempt := 0; attempt < maxRegisterAttempts; attempt++ {
		externalID, err := s.allocator.AccountID(ctx, s.accountIDLength)
		if err != nil {
			return nil, err
		}

		user := &models.User{
			ExternalID:   externalID,
			Name:         name,
			PasswordHash: string(hash),
			Email:        email,
		}

		u, err := repo.Create(ctx, user)
		if err == nil {
			return u, nil
		}

		var dup *common.DuplicateError
		if errors.As(err, &dup) && dup.Field == "external_id" {
			// Lost the insert race on the allocated identifier; draw again.
			continue
		}
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	return nil, common.ErrAllocationExhausted
}

// Login verifies the username/password pair and, on success, returns a signed
// session token together with the account. Unknown users and wrong passwords
// are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, name, password string) (string, *models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrInvalidCredential
		}
		return "", nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, common.ErrInvalidCredential
	}

	token, err := auth.IssueUserToken(auth.UserClaims{AccountID: user.ExternalID, DisplayName: user.Name}, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	return token, user, nil
}

// GetByExternalID returns the account identified by externalID.
func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByExternalID(ctx, externalID)
}

// UpdatePassword verifies oldPassword and replaces the stored hash with one
// of newPassword. The read and the write run in one transaction so the check
// and the update see the same row.
func (s *UserService) UpdatePassword(ctx context.Context, externalID, oldPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByExternalID(ctx, externalID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotFound
			}
			return common.ErrorInternal
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
			return common.ErrInvalidCredential
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return common.ErrorInternal
		}

		return repo.UpdatePassword(ctx, externalID, string(hash))
	})
}

// List returns a page of accounts plus the total account count, for the
// admin listing.
func (s *UserService) List(ctx context.Context, offset, limit int64) ([]*models.User, int64, error) {
	repo := s.repomanager.Users(s.db)

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting users: %v", err)
	}

	users, err := repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %v", err)
	}

	return users, total, nil
}
