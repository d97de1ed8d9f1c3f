package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create stages a new user.
func (r *UserRepository) Create(ctx context.Context, tx usecase.Transaction, user *domain.User) error {
	mtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	if mtx == nil {
		return errForeignTx
	}

	if r.conflicts(mtx, user) {
		return domain.ErrUserExists
	}

	if err := mtx.lock(ctx, userKey(user.ID)); err != nil {
		return err
	}

	mtx.mu.Lock()
	mtx.users[user.ID] = cloneUser(user)
	mtx.newUsers = append(mtx.newUsers, user.ID)
	mtx.mu.Unlock()

	return nil
}

// GetByID reads a user without locking.
func (r *UserRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.User, error) {
	mtx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.find(mtx, id)
}

// GetByIDForUpdate locks and reads a user.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.User, error) {
	mtx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	if mtx == nil {
		return nil, errForeignTx
	}

	if _, err := r.find(mtx, id); err != nil {
		return nil, err
	}

	if err := mtx.lock(ctx, userKey(id)); err != nil {
		return nil, err
	}

	return r.find(mtx, id)
}

// GetByIdentifier finds a user by exact email, then by exact username.
func (r *UserRepository) GetByIdentifier(ctx context.Context, tx usecase.Transaction, identifier string) (*domain.User, error) {
	mtx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	users := r.visible(mtx)

	for _, u := range users {
		if u.Email == identifier {
			return u, nil
		}
	}
	for _, u := range users {
		if u.Username == identifier {
			return u, nil
		}
	}

	return nil, domain.ErrUserNotFound
}

// List lists committed users ordered by creation time.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	users := r.visible(nil)
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return paginate(users, limit, offset), nil
}

// UpdateStatus stages a new status.
func (r *UserRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.UserStatus, updatedAt time.Time) error {
	return r.update(ctx, tx, id, func(u *domain.User) {
		u.Status = status
		u.UpdatedAt = updatedAt
	})
}

// UpdateRole stages a new role.
func (r *UserRepository) UpdateRole(ctx context.Context, tx usecase.Transaction, id string, role domain.Role, updatedAt time.Time) error {
	return r.update(ctx, tx, id, func(u *domain.User) {
		u.Role = role
		u.UpdatedAt = updatedAt
	})
}

func (r *UserRepository) update(ctx context.Context, tx usecase.Transaction, id string, apply func(*domain.User)) error {
	mtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	if mtx == nil {
		return errForeignTx
	}

	if err := mtx.lock(ctx, userKey(id)); err != nil {
		return err
	}

	u, err := r.find(mtx, id)
	if err != nil {
		return err
	}
	apply(u)

	mtx.mu.Lock()
	mtx.users[id] = u
	mtx.mu.Unlock()

	return nil
}

func (r *UserRepository) find(mtx *Tx, id string) (*domain.User, error) {
	if mtx != nil {
		mtx.mu.Lock()
		u, ok := mtx.users[id]
		mtx.mu.Unlock()
		if ok {
			return cloneUser(u), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if u, ok := r.store.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

// visible returns copies of all users as seen by mtx, which may be nil.
func (r *UserRepository) visible(mtx *Tx) []*domain.User {
	merged := make(map[string]*domain.User)

	r.store.mu.RLock()
	for id, u := range r.store.users {
		merged[id] = u
	}
	r.store.mu.RUnlock()

	if mtx != nil {
		mtx.mu.Lock()
		for id, u := range mtx.users {
			merged[id] = u
		}
		mtx.mu.Unlock()
	}

	users := make([]*domain.User, 0, len(merged))
	for _, u := range merged {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (r *UserRepository) conflicts(mtx *Tx, user *domain.User) bool {
	for _, u := range r.visible(mtx) {
		if u.ID == user.ID || u.Username == user.Username || u.Email == user.Email {
			return true
		}
	}
	return false
}
