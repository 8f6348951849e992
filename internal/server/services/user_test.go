package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/dmitrijs2005/chatgate/internal/dbx"
	"github.com/dmitrijs2005/chatgate/internal/server/auth"
	"github.com/dmitrijs2005/chatgate/internal/server/config"
	"github.com/dmitrijs2005/chatgate/internal/server/idgen"
	"github.com/dmitrijs2005/chatgate/internal/server/models"
	adminsrepo "github.com/dmitrijs2005/chatgate/internal/server/repositories/admins"
	exchangesrepo "github.com/dmitrijs2005/chatgate/internal/server/repositories/exchanges"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/chatgate/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.TokenValidityDuration = time.Hour
	cfg.AccountIDLength = 11
	return cfg
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	return string(h)
}

type fakeUsersRepo struct {
	createOut  *models.User
	createErrs []error // consumed one per Create call
	createdIn  []*models.User

	getOut *models.User
	getErr error

	byIDOut *models.User
	byIDErr error

	existsOut bool
	existsErr error

	updateErr error
	updatedTo string

	countOut int64
	countErr error
	listOut  []*models.User
	listErr  error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.createdIn = append(f.createdIn, u)
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByName(ctx context.Context, name string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) ExternalIDExists(ctx context.Context, externalID string) (bool, error) {
	return f.existsOut, f.existsErr
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, externalID string, passwordHash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedTo = passwordHash
	return nil
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int64, error) {
	return f.countOut, f.countErr
}

func (f *fakeUsersRepo) List(ctx context.Context, offset, limit int64) ([]*models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeAdminsRepo struct {
	createOut *models.Admin
	createErr error
	createdIn []*models.Admin

	getOut *models.Admin
	getErr error
}

func (f *fakeAdminsRepo) Create(ctx context.Context, a *models.Admin) (*models.Admin, error) {
	f.createdIn = append(f.createdIn, a)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return a, nil
}

func (f *fakeAdminsRepo) GetByName(ctx context.Context, adminName string) (*models.Admin, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeExchangesRepo struct {
	appendOut *models.Exchange
	appendErr error
	appended  []*models.Exchange

	listOut []*models.Exchange
	listErr error

	topicExists    bool
	topicExistsErr error

	topicsOut []*models.TopicSummary
	topicsErr error

	countOut int64
	countErr error

	deleteOut int64
	deleteErr error
}

func (f *fakeExchangesRepo) Append(ctx context.Context, e *models.Exchange) (*models.Exchange, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.appended = append(f.appended, e)
	if f.appendOut != nil {
		return f.appendOut, nil
	}
	return e, nil
}

func (f *fakeExchangesRepo) ListByTopic(ctx context.Context, userUUID, topicID string) ([]*models.Exchange, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakeExchangesRepo) TopicExists(ctx context.Context, userUUID, topicID string) (bool, error) {
	return f.topicExists, f.topicExistsErr
}

func (f *fakeExchangesRepo) ListTopics(ctx context.Context, userUUID string, offset, limit int64) ([]*models.TopicSummary, error) {
	if f.topicsErr != nil {
		return nil, f.topicsErr
	}
	return f.topicsOut, nil
}

func (f *fakeExchangesRepo) CountTopics(ctx context.Context, userUUID string) (int64, error) {
	return f.countOut, f.countErr
}

func (f *fakeExchangesRepo) DeleteTopic(ctx context.Context, userUUID, topicID string) (int64, error) {
	return f.deleteOut, f.deleteErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	a *fakeAdminsRepo
	e *fakeExchangesRepo
}

func (m *fakeRepoManager) Conn() *sql.DB                                  { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository         { return m.u }
func (m *fakeRepoManager) Admins(db dbx.DBTX) adminsrepo.Repository       { return m.a }
func (m *fakeRepoManager) Exchanges(db dbx.DBTX) exchangesrepo.Repository { return m.e }
func (m *fakeRepoManager) RunMigrations(context.Context) error            { return nil }
func (m *fakeRepoManager) Close() error                                   { return nil }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

func newUserService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *UserService {
	t.Helper()
	allocator := idgen.NewAllocator(rm.u, rm.e)
	return NewUserService(db, rm, allocator, testConfig())
}

// --- tests ---

func TestRegister_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{}, e: &fakeExchangesRepo{}})

	if _, err := s.Register(context.Background(), "", "longenough", ""); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("empty name: want ErrorValidation, got %v", err)
	}
	if _, err := s.Register(context.Background(), "alice", "short", ""); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("short password: want ErrorValidation, got %v", err)
	}
}

func TestRegister_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	u := &fakeUsersRepo{}
	rm := &fakeRepoManager{u: u, e: &fakeExchangesRepo{}}
	s := newUserService(t, db, rm)

	user, err := s.Register(context.Background(), "alice", "sw0rdfish", "a@example.com")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if len(user.ExternalID) != 11 {
		t.Fatalf("external id width: got %q", user.ExternalID)
	}
	if user.Name != "alice" || user.Email != "a@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "sw0rdfish" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed, got %q", user.PasswordHash)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("sw0rdfish")) != nil {
		t.Fatal("stored hash does not verify the password")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	u := &fakeUsersRepo{createErrs: []error{&common.DuplicateError{Field: "username"}}}
	s := newUserService(t, db, &fakeRepoManager{u: u, e: &fakeExchangesRepo{}})

	_, err := s.Register(context.Background(), "alice", "sw0rdfish", "")
	if !errors.Is(err, common.ErrDuplicateIdentity) {
		t.Fatalf("want ErrDuplicateIdentity, got %v", err)
	}
	var dup *common.DuplicateError
	if !errors.As(err, &dup) || dup.Field != "username" {
		t.Fatalf("want duplicate field username, got %v", err)
	}
	if len(u.createdIn) != 1 {
		t.Fatalf("duplicate username must not be retried, got %d inserts", len(u.createdIn))
	}
}

func TestRegister_ExternalIDCollisionRetries(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	// First insert loses the race on external_id, second succeeds.
	u := &fakeUsersRepo{createErrs: []error{&common.DuplicateError{Field: "external_id"}, nil}}
	s := newUserService(t, db, &fakeRepoManager{u: u, e: &fakeExchangesRepo{}})

	user, err := s.Register(context.Background(), "alice", "sw0rdfish", "")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if len(u.createdIn) != 2 {
		t.Fatalf("want 2 insert attempts, got %d", len(u.createdIn))
	}
	if u.createdIn[0].ExternalID == u.createdIn[1].ExternalID {
		t.Fatal("retry must draw a fresh external id")
	}
	if user.ExternalID != u.createdIn[1].ExternalID {
		t.Fatalf("returned id %q does not match inserted %q", user.ExternalID, u.createdIn[1].ExternalID)
	}
}

func TestRegister_Exhausted(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	errs := make([]error, maxRegisterAttempts)
	for i := range errs {
		errs[i] = &common.DuplicateError{Field: "external_id"}
	}
	u := &fakeUsersRepo{createErrs: errs}
	s := newUserService(t, db, &fakeRepoManager{u: u, e: &fakeExchangesRepo{}})

	_, err := s.Register(context.Background(), "alice", "sw0rdfish", "")
	if !errors.Is(err, common.ErrAllocationExhausted) {
		t.Fatalf("want ErrAllocationExhausted, got %v", err)
	}
}

func TestRegister_CreateErr(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	u := &fakeUsersRepo{createErrs: []error{errBoom{}}}
	s := newUserService(t, db, &fakeRepoManager{u: u, e: &fakeExchangesRepo{}})

	_, err := s.Register(context.Background(), "alice", "sw0rdfish", "")
	if err == nil || !regexp.MustCompile(`error creating user: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped create error, got %v", err)
	}
}

func TestLogin_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash := mustHash(t, "right")

	// unknown user → invalid credential
	sNF := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, e: &fakeExchangesRepo{}})
	if _, _, err := sNF.Login(context.Background(), "ghost", "x"); !errors.Is(err, common.ErrInvalidCredential) {
		t.Fatalf("unknown user: want ErrInvalidCredential, got %v", err)
	}

	// store failure → internal
	sIE := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}, e: &fakeExchangesRepo{}})
	if _, _, err := sIE.Login(context.Background(), "u", "x"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("store failure: want ErrorInternal, got %v", err)
	}

	// wrong password → invalid credential, same as unknown user
	sWP := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: &models.User{ExternalID: "12345678901", Name: "alice", PasswordHash: hash}}, e: &fakeExchangesRepo{}})
	if _, _, err := sWP.Login(context.Background(), "alice", "wrong"); !errors.Is(err, common.ErrInvalidCredential) {
		t.Fatalf("wrong password: want ErrInvalidCredential, got %v", err)
	}

	sOK := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: &models.User{ExternalID: "12345678901", Name: "alice", PasswordHash: hash}}, e: &fakeExchangesRepo{}})
	token, user, err := sOK.Login(context.Background(), "alice", "right")
	if err != nil || token == "" {
		t.Fatalf("Login success: token=%q err=%v", token, err)
	}
	if user.ExternalID != "12345678901" {
		t.Fatalf("unexpected user: %+v", user)
	}

	identity, err := auth.VerifyToken(token, []byte("k"))
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if identity.User == nil || identity.User.AccountID != "12345678901" || identity.User.DisplayName != "alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestUpdatePassword_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	u := &fakeUsersRepo{byIDOut: &models.User{ExternalID: "12345678901", PasswordHash: mustHash(t, "oldpass")}}
	s := newUserService(t, db, &fakeRepoManager{u: u, e: &fakeExchangesRepo{}})

	if err := s.UpdatePassword(context.Background(), "12345678901", "oldpass", "newpass1"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if u.updatedTo == "" || bcrypt.CompareHashAndPassword([]byte(u.updatedTo), []byte("newpass1")) != nil {
		t.Fatalf("stored hash does not verify the new password")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdatePassword_WrongOldPassword(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	u := &fakeUsersRepo{byIDOut: &models.User{ExternalID: "12345678901", PasswordHash: mustHash(t, "oldpass")}}
	s := newUserService(t, db, &fakeRepoManager{u: u, e: &fakeExchangesRepo{}})

	err := s.UpdatePassword(context.Background(), "12345678901", "wrong", "newpass1")
	if !errors.Is(err, common.ErrInvalidCredential) {
		t.Fatalf("want ErrInvalidCredential, got %v", err)
	}
	if u.updatedTo != "" {
		t.Fatal("password must not change on failed verification")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdatePassword_TooShort(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{}, e: &fakeExchangesRepo{}})

	if err := s.UpdatePassword(context.Background(), "12345678901", "old", "short"); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want ErrorValidation, got %v", err)
	}
}

func TestUpdatePassword_NotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	u := &fakeUsersRepo{byIDErr: common.ErrorNotFound}
	s := newUserService(t, db, &fakeRepoManager{u: u, e: &fakeExchangesRepo{}})

	if err := s.UpdatePassword(context.Background(), "00000000000", "old", "newpass1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestList_Users(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	u := &fakeUsersRepo{
		countOut: 42,
		listOut:  []*models.User{{ExternalID: "1"}, {ExternalID: "2"}},
	}
	s := newUserService(t, db, &fakeRepoManager{u: u, e: &fakeExchangesRepo{}})

	users, total, err := s.List(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if total != 42 || len(users) != 2 {
		t.Fatalf("got total=%d len=%d", total, len(users))
	}

	sErr := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{countErr: errBoom{}}, e: &fakeExchangesRepo{}})
	if _, _, err := sErr.List(context.Background(), 0, 10); err == nil {
		t.Fatal("expected count error")
	}
}
