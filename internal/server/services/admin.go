package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/dmitrijs2005/chatgate/internal/server/auth"
	"github.com/dmitrijs2005/chatgate/internal/server/config"
	"github.com/dmitrijs2005/chatgate/internal/server/models"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// SuperAdminName is the only administrator allowed to create further admins.
const SuperAdminName = "superadmin"

// AdminService handles administrator authentication and account management.
// Admins are a separate identity class from users and never go through the
// allocator or the challenge flow.
type AdminService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AdminService {
	return &AdminService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Login verifies the admin credentials and mints a session token carrying
// admin claims.
func (s *AdminService) Login(ctx context.Context, adminName, password string) (string, *models.Admin, error) {
	repo := s.repomanager.Admins(s.db)

	admin, err := repo.GetByName(ctx, adminName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrInvalidCredential
		}
		return "", nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", nil, common.ErrInvalidCredential
	}

	token, err := auth.IssueAdminToken(auth.AdminClaims{AdminName: admin.AdminName}, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	return token, admin, nil
}

// Create inserts a new administrator on behalf of actorName. Only the
// superadmin may create admins; anyone else gets ErrorUnauthorized
// regardless of whether the target name is taken.
func (s *AdminService) Create(ctx context.Context, actorName, adminName, password string) (*models.Admin, error) {
	if actorName != SuperAdminName {
		return nil, common.ErrorUnauthorized
	}
	return s.create(ctx, adminName, password)
}

// Bootstrap inserts an administrator without an acting credential. It backs
// the command-line admin creation on a fresh deployment and must never be
// reachable from the network surface.
func (s *AdminService) Bootstrap(ctx context.Context, adminName, password string) (*models.Admin, error) {
	return s.create(ctx, adminName, password)
}

func (s *AdminService) create(ctx context.Context, adminName, password string) (*models.Admin, error) {
	if adminName == "" {
		return nil, fmt.Errorf("%w: admin name is required", common.ErrorValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Admins(s.db)

	admin, err := repo.Create(ctx, &models.Admin{AdminName: adminName, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating admin: %v", err)
	}

	return admin, nil
}
