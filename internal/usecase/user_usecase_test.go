package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type userFixture struct {
	*fixture
	sessions *mocks.MockSessionStore
	uc       *usecase.UserUseCase
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	f := newFixture(t)
	ctrl := gomock.NewController(t)

	tokens := mocks.NewMockTokenIssuer(ctrl)
	tokens.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(u *domain.User, sessionID string) (string, time.Time, error) {
			return "token:" + u.ID + ":" + sessionID, time.Now().Add(time.Hour), nil
		}).AnyTimes()
	tokens.EXPECT().TTL().Return(time.Hour).AnyTimes()

	sessions := mocks.NewMockSessionStore()

	uc := usecase.NewUserUseCase(usecase.UserDependencies{
		TxManager:  f.store,
		Users:      f.users,
		Wallets:    f.wallets,
		Currencies: f.currencies,
		Outbox:     f.outbox,
		Audit:      f.audit,
		Sessions:   sessions,
		Tokens:     tokens,
		Hasher:     plainHasher{},
		IDGen:      f.ids,
		Metrics:    f.metrics,
		Logger:     zerolog.Nop(),
	})

	return &userFixture{fixture: f, sessions: sessions, uc: uc}
}

func (f *userFixture) register(t *testing.T, username string) *usecase.AuthResult {
	t.Helper()

	result, err := f.uc.Register(context.Background(), usecase.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return result
}

func TestUserUseCase_Register(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	result := f.register(t, "alice")

	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, domain.RoleUser, result.User.Role)
	assert.Equal(t, domain.UserStatusActive, result.User.Status)
	require.Len(t, result.Wallets, 1)
	assert.Equal(t, "USD", result.Wallets[0].CurrencyCode)
	assert.Equal(t, "0.00", result.Wallets[0].Balance)
	require.NotNil(t, result.Session)
	assert.NotEmpty(t, result.Session.Token)
	assert.Equal(t, 1, f.sessions.Count(result.User.ID))

	stored, err := f.users.GetByID(ctx, nil, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain:Secret123", stored.HashedPassword)

	logs, err := f.audit.List(ctx, domain.AuditFilter{Action: string(domain.AuditActionUserRegister)})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestUserUseCase_BootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	admin, err := f.uc.BootstrapAdmin(ctx, usecase.RegisterInput{Username: "root", Email: "root@example.com", Password: "Admin1234"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Zero(t, f.sessions.Count(admin.ID))

	wallets, err := f.wallets.ListByOwner(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, wallets, 1)

	_, err = f.uc.BootstrapAdmin(ctx, usecase.RegisterInput{Username: "root", Email: "root2@example.com", Password: "Admin1234"})
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUserUseCase_RegisterRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   usecase.RegisterInput
		wantErr error
	}{
		{"short username", usecase.RegisterInput{Username: "al", Email: "al@example.com", Password: "Secret123"}, domain.ErrInvalidUsername},
		{"bad email", usecase.RegisterInput{Username: "alice", Email: "nope", Password: "Secret123"}, domain.ErrInvalidEmail},
		{"weak password", usecase.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password"}, domain.ErrPasswordTooWeak},
		{"bad phone", usecase.RegisterInput{Username: "alice", Email: "alice@example.com", Phone: "call me", Password: "Secret123"}, domain.ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture(t)
			_, err := f.uc.Register(ctx, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	t.Run("duplicate username", func(t *testing.T) {
		f := newUserFixture(t)
		f.register(t, "alice")

		_, err := f.uc.Register(ctx, usecase.RegisterInput{Username: "alice", Email: "other@example.com", Password: "Secret123"})
		require.ErrorIs(t, err, domain.ErrUserExists)
	})
}

func TestUserUseCase_Login(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	registered := f.register(t, "alice")

	byName, err := f.uc.Login(ctx, usecase.LoginInput{Identifier: "alice", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, byName.User.ID)
	require.Len(t, byName.Wallets, 1)

	// Each login revokes the sessions issued before it.
	_, err = f.uc.Login(ctx, usecase.LoginInput{Identifier: "alice@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.sessions.Count(registered.User.ID))

	_, err = f.uc.Login(ctx, usecase.LoginInput{Identifier: "alice", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.uc.Login(ctx, usecase.LoginInput{Identifier: "nobody", Password: "Secret123"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	f.setUserStatus(t, registered.User.ID, domain.UserStatusDeactivated)
	_, err = f.uc.Login(ctx, usecase.LoginInput{Identifier: "alice", Password: "Secret123"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUserUseCase_LogoutAndMe(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	registered := f.register(t, "alice")

	profile, err := f.uc.Me(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User.Username)
	assert.Len(t, profile.Wallets, 1)

	require.Equal(t, 1, f.sessions.Count(registered.User.ID))
	sessionID := strings.TrimPrefix(registered.Session.Token, "token:"+registered.User.ID+":")

	require.NoError(t, f.uc.Logout(ctx, domain.Principal{UserID: registered.User.ID, SessionID: sessionID}))
	assert.Equal(t, 0, f.sessions.Count(registered.User.ID))

	_, err = f.uc.Me(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUserUseCase_ListUsers(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	alice := f.register(t, "alice")

	users, err := f.uc.ListUsers(ctx, admin.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.uc.ListUsers(ctx, alice.User.ID, 10, 0)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUserUseCase_Promote(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	alice := f.register(t, "alice")

	promoted, err := f.uc.Promote(ctx, admin.ID, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, promoted.Role)

	_, err = f.uc.Promote(ctx, admin.ID, alice.User.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyInState)

	_, err = f.uc.Promote(ctx, admin.ID, admin.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.uc.Promote(ctx, alice.User.ID, admin.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	// The new employee can now deposit.
	_, err = f.ledger.Deposit(ctx, usecase.DepositInput{ActorID: alice.User.ID, WalletID: alice.Wallets[0].ID, Amount: amount("1")})
	require.NoError(t, err)
}

func TestUserUseCase_SetUserStatus(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	teller := f.addUser(t, "teller", domain.RoleEmployee)
	alice := f.register(t, "alice")
	require.Equal(t, 1, f.sessions.Count(alice.User.ID))

	deactivated, err := f.uc.SetUserStatus(ctx, admin.ID, alice.User.ID, domain.UserStatusDeactivated)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusDeactivated, deactivated.Status)
	assert.Equal(t, 0, f.sessions.Count(alice.User.ID))

	_, err = f.ledger.Deposit(ctx, usecase.DepositInput{ActorID: teller.ID, WalletID: alice.Wallets[0].ID, Amount: amount("1")})
	require.ErrorIs(t, err, domain.ErrUserNotActive)

	_, err = f.uc.SetUserStatus(ctx, admin.ID, alice.User.ID, domain.UserStatusDeactivated)
	require.ErrorIs(t, err, domain.ErrAlreadyInState)

	_, err = f.uc.SetUserStatus(ctx, admin.ID, alice.User.ID, domain.UserStatusActive)
	require.NoError(t, err)

	_, err = f.ledger.Deposit(ctx, usecase.DepositInput{ActorID: teller.ID, WalletID: alice.Wallets[0].ID, Amount: amount("1")})
	require.NoError(t, err)

	events, err := f.outbox.GetUnpublished(ctx, 0)
	require.NoError(t, err)
	var statusEvents int
	for _, e := range events {
		if e.EventType == domain.EventTypeUserStatusChanged {
			statusEvents++
		}
	}
	assert.Equal(t, 2, statusEvents)
}

func TestUserUseCase_DeactivationCommitsWhenSessionsCannotBeRevoked(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	teller := f.addUser(t, "teller", domain.RoleEmployee)
	alice := f.register(t, "alice")

	f.sessions.RevokeAllFunc = func(context.Context, string) error {
		return errors.New("redis unavailable")
	}

	deactivated, err := f.uc.SetUserStatus(ctx, admin.ID, alice.User.ID, domain.UserStatusDeactivated)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusDeactivated, deactivated.Status)

	stored, err := f.users.GetByID(ctx, nil, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusDeactivated, stored.Status)

	_, err = f.ledger.Deposit(ctx, usecase.DepositInput{ActorID: teller.ID, WalletID: alice.Wallets[0].ID, Amount: amount("1")})
	require.ErrorIs(t, err, domain.ErrUserNotActive)
}

// abortingAudit closes the unit of work while recording, so the following
// commit fails.
type abortingAudit struct {
	usecase.AuditRepository
}

func (a abortingAudit) CreateTx(ctx context.Context, tx usecase.Transaction, _ *domain.AuditLog) error {
	return tx.Rollback(ctx)
}

func TestUserUseCase_FailedDeactivationKeepsSessions(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	alice := f.register(t, "alice")
	require.Equal(t, 1, f.sessions.Count(alice.User.ID))

	uc := usecase.NewUserUseCase(usecase.UserDependencies{
		TxManager:  f.store,
		Users:      f.users,
		Wallets:    f.wallets,
		Currencies: f.currencies,
		Outbox:     f.outbox,
		Audit:      abortingAudit{AuditRepository: f.audit},
		Sessions:   f.sessions,
		Hasher:     plainHasher{},
		IDGen:      f.ids,
		Logger:     zerolog.Nop(),
	})

	_, err := uc.SetUserStatus(ctx, admin.ID, alice.User.ID, domain.UserStatusDeactivated)
	require.ErrorIs(t, err, domain.ErrPersistenceFailure)

	stored, err := f.users.GetByID(ctx, nil, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, stored.Status)
	assert.Equal(t, 1, f.sessions.Count(alice.User.ID))
}
