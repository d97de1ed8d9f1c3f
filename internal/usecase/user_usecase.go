package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// UserDependencies groups the collaborators of UserUseCase.
type UserDependencies struct {
	TxManager       TransactionManager
	Users           UserRepository
	Wallets         WalletRepository
	Currencies      CurrencyRepository
	Outbox          OutboxRepository
	Audit           AuditRepository
	Sessions        SessionStore
	Tokens          TokenIssuer
	Hasher          PasswordHasher
	IDGen           IDGenerator
	Policy          domain.Policy
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
	DefaultCurrency string
}

// UserUseCase handles registration, authentication and user administration.
type UserUseCase struct {
	deps UserDependencies
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(deps UserDependencies) *UserUseCase {
	if deps.Policy == nil {
		deps.Policy = domain.RolePolicy{}
	}
	if deps.DefaultCurrency == "" {
		deps.DefaultCurrency = DefaultCurrencyCode
	}
	return &UserUseCase{deps: deps}
}

// RegisterInput represents input for registering a user
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// LoginInput represents authentication input. Identifier is an email or a
// username.
type LoginInput struct {
	Identifier string
	Password   string
}

// Session is an issued access token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User    *UserSnapshot
	Wallets []*WalletSnapshot
	Session *Session
}

// Profile is the authenticated user with their wallets.
type Profile struct {
	User    *UserSnapshot
	Wallets []*WalletSnapshot
}

// Register creates a user together with a wallet in the default currency.
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	result, err := uc.register(ctx, input)
	return result, classify(ctx, uc.deps.Logger, "user.register", err)
}

func (uc *UserUseCase) register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user, wallet, err := uc.createAccount(ctx, input, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	session, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:    newUserSnapshot(user),
		Wallets: []*WalletSnapshot{wallet},
		Session: session,
	}, nil
}

// BootstrapAdmin creates an administrator with a default wallet. It is used by
// the seed command and issues no session.
func (uc *UserUseCase) BootstrapAdmin(ctx context.Context, input RegisterInput) (*UserSnapshot, error) {
	user, _, err := uc.createAccount(ctx, input, domain.RoleAdmin)
	if err != nil {
		return nil, classify(ctx, uc.deps.Logger, "user.bootstrap_admin", err)
	}

	uc.deps.Logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("admin bootstrapped")
	return newUserSnapshot(user), nil
}

// createAccount validates input and stores the user together with a wallet in
// the default currency.
func (uc *UserUseCase) createAccount(ctx context.Context, input RegisterInput, role domain.Role) (*domain.User, *WalletSnapshot, error) {
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, nil, err
	}
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, nil, err
	}
	if err := domain.ValidatePhone(input.Phone); err != nil {
		return nil, nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	currency, err := uc.deps.Currencies.GetByCode(ctx, uc.deps.DefaultCurrency)
	if err != nil {
		return nil, nil, err
	}

	hash, err := uc.deps.Hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.deps.TxManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uc.deps.IDGen.Generate(),
		Username:       input.Username,
		Email:          input.Email,
		Phone:          input.Phone,
		HashedPassword: hash,
		Role:           role,
		Status:         domain.UserStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.deps.Users.Create(txCtx, tx, user); err != nil {
		return nil, nil, err
	}

	wallet, err := openWallet(txCtx, tx, uc.deps.Wallets, uc.deps.IDGen, user.ID, currency, now)
	if err != nil {
		return nil, nil, err
	}

	payload := map[string]any{"wallet_id": wallet.ID, "owner_id": user.ID, "currency": currency.Code}
	if err := writeEvent(txCtx, tx, uc.deps.Outbox, uc.deps.IDGen, domain.AggregateTypeWallet, wallet.ID, domain.EventTypeWalletCreated, payload, now); err != nil {
		return nil, nil, err
	}

	if err := writeAudit(txCtx, tx, uc.deps.Audit, uc.deps.IDGen, auditEntry{
		actorID:      user.ID,
		action:       domain.AuditActionUserRegister,
		resourceType: domain.AggregateTypeUser,
		resourceID:   user.ID,
		after:        newUserSnapshot(user),
	}, now); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, nil, err
	}

	if m := uc.deps.Metrics; m != nil {
		m.UsersRegistered.Inc()
		m.WalletsCreated.Inc()
	}

	return user, newWalletSnapshot(wallet, currency), nil
}

// Login verifies credentials, revokes previous sessions and issues a new one.
// Unknown, deactivated and wrong-password logins are indistinguishable.
func (uc *UserUseCase) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	result, err := uc.login(ctx, input)

	if m := uc.deps.Metrics; m != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		m.AuthAttempts.WithLabelValues(status).Inc()
	}

	return result, classify(ctx, uc.deps.Logger, "user.login", err)
}

func (uc *UserUseCase) login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Identifier == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := uc.deps.Users.GetByIdentifier(ctx, nil, input.Identifier)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := uc.deps.Hasher.Compare(user.HashedPassword, input.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if user.EnsureActive() != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if uc.deps.Sessions != nil {
		if err := uc.deps.Sessions.RevokeAll(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	session, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	wallets, err := listWalletSnapshots(ctx, uc.deps.Wallets, uc.deps.Currencies, user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: newUserSnapshot(user), Wallets: wallets, Session: session}, nil
}

func (uc *UserUseCase) issueSession(ctx context.Context, user *domain.User) (*Session, error) {
	sessionID := uuid.NewString()

	token, expiresAt, err := uc.deps.Tokens.Generate(user, sessionID)
	if err != nil {
		return nil, err
	}

	if uc.deps.Sessions != nil {
		if err := uc.deps.Sessions.Add(ctx, user.ID, sessionID, uc.deps.Tokens.TTL()); err != nil {
			return nil, err
		}
	}

	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes the session of the principal.
func (uc *UserUseCase) Logout(ctx context.Context, principal domain.Principal) error {
	if uc.deps.Sessions == nil || principal.SessionID == "" {
		return nil
	}
	err := uc.deps.Sessions.Revoke(ctx, principal.UserID, principal.SessionID)
	return classify(ctx, uc.deps.Logger, "user.logout", err)
}

// Me returns the actor's profile and wallets.
func (uc *UserUseCase) Me(ctx context.Context, actorID string) (*Profile, error) {
	profile, err := uc.me(ctx, actorID)
	return profile, classify(ctx, uc.deps.Logger, "user.me", err)
}

func (uc *UserUseCase) me(ctx context.Context, actorID string) (*Profile, error) {
	actor, err := loadActor(ctx, nil, uc.deps.Users, actorID)
	if err != nil {
		return nil, err
	}

	wallets, err := listWalletSnapshots(ctx, uc.deps.Wallets, uc.deps.Currencies, actor.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: newUserSnapshot(actor), Wallets: wallets}, nil
}

// ListUsers lists all users with pagination
func (uc *UserUseCase) ListUsers(ctx context.Context, actorID string, limit, offset int) ([]*UserSnapshot, error) {
	users, err := uc.listUsers(ctx, actorID, limit, offset)
	return users, classify(ctx, uc.deps.Logger, "user.list", err)
}

func (uc *UserUseCase) listUsers(ctx context.Context, actorID string, limit, offset int) ([]*UserSnapshot, error) {
	actor, err := loadActor(ctx, nil, uc.deps.Users, actorID)
	if err != nil {
		return nil, err
	}

	if err := uc.deps.Policy.Allow(actor, domain.ActionListUsers, domain.Resource{}); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	users, err := uc.deps.Users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*UserSnapshot, 0, len(users))
	for _, u := range users {
		snapshots = append(snapshots, newUserSnapshot(u))
	}

	return snapshots, nil
}

// Promote grants the employee role to a user.
func (uc *UserUseCase) Promote(ctx context.Context, actorID, userID string) (*UserSnapshot, error) {
	snapshot, err := uc.mutateUser(ctx, actorID, userID, domain.ActionPromoteUser, func(ctx context.Context, tx Transaction, target *domain.User, now time.Time) (domain.AuditAction, error) {
		if err := target.Promote(now); err != nil {
			return "", err
		}
		return domain.AuditActionUserPromote, uc.deps.Users.UpdateRole(ctx, tx, target.ID, target.Role, now)
	})
	return snapshot, classify(ctx, uc.deps.Logger, "user.promote", err)
}

// SetUserStatus deactivates or reactivates a user. Deactivation revokes all
// of the user's sessions once the status change has committed.
func (uc *UserUseCase) SetUserStatus(ctx context.Context, actorID, userID string, status domain.UserStatus) (*UserSnapshot, error) {
	snapshot, err := uc.mutateUser(ctx, actorID, userID, domain.ActionSetUserStatus, func(ctx context.Context, tx Transaction, target *domain.User, now time.Time) (domain.AuditAction, error) {
		from := target.Status
		if err := target.Transition(status, now); err != nil {
			return "", err
		}

		if err := uc.deps.Users.UpdateStatus(ctx, tx, target.ID, target.Status, now); err != nil {
			return "", err
		}

		payload := domain.StatusChangedEvent{ID: target.ID, From: string(from), To: string(status), ActorID: actorID}
		if err := writeEvent(ctx, tx, uc.deps.Outbox, uc.deps.IDGen, domain.AggregateTypeUser, target.ID, domain.EventTypeUserStatusChanged, payload, now); err != nil {
			return "", err
		}

		if status == domain.UserStatusDeactivated {
			return domain.AuditActionUserDeactivate, nil
		}
		return domain.AuditActionUserActivate, nil
	})

	if err == nil && status == domain.UserStatusDeactivated {
		uc.revokeSessions(ctx, userID)
	}

	if err == nil && uc.deps.Metrics != nil {
		uc.deps.Metrics.StatusChanges.WithLabelValues(domain.AggregateTypeUser, string(status)).Inc()
	}

	return snapshot, classify(ctx, uc.deps.Logger, "user.set_status", err)
}

// revokeSessions drops every session of a committed deactivation. A failure
// is logged only: the status is already durable and loadActor rejects the
// user on every mutating operation until the tokens expire.
func (uc *UserUseCase) revokeSessions(ctx context.Context, userID string) {
	if uc.deps.Sessions == nil {
		return
	}
	if err := uc.deps.Sessions.RevokeAll(ctx, userID); err != nil {
		uc.deps.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to revoke sessions of deactivated user")
	}
}

type userMutation func(ctx context.Context, tx Transaction, target *domain.User, now time.Time) (domain.AuditAction, error)

// mutateUser runs an admin change against a locked user row and records it
// in the audit log within the same unit of work.
func (uc *UserUseCase) mutateUser(ctx context.Context, actorID, userID string, action domain.Action, mutate userMutation) (*UserSnapshot, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.deps.TxManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	actor, err := loadActor(txCtx, tx, uc.deps.Users, actorID)
	if err != nil {
		return nil, err
	}

	if err := uc.deps.Policy.Allow(actor, action, domain.Resource{OwnerID: userID}); err != nil {
		return nil, err
	}

	target, err := uc.deps.Users.GetByIDForUpdate(txCtx, tx, userID)
	if err != nil {
		return nil, err
	}

	before := newUserSnapshot(target)
	now := time.Now().UTC()

	auditAction, err := mutate(txCtx, tx, target, now)
	if err != nil {
		return nil, err
	}

	if err := writeAudit(txCtx, tx, uc.deps.Audit, uc.deps.IDGen, auditEntry{
		actorID:      actor.ID,
		action:       auditAction,
		resourceType: domain.AggregateTypeUser,
		resourceID:   target.ID,
		before:       before,
		after:        newUserSnapshot(target),
	}, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.deps.Metrics != nil {
		uc.deps.Metrics.AuditLogsCreated.WithLabelValues(string(auditAction), string(domain.AuditStatusSuccess)).Inc()
	}

	return newUserSnapshot(target), nil
}
