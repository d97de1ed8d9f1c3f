package domain

// Action names an operation subject to authorization.
type Action string

const (
	ActionDeposit         Action = "deposit"
	ActionWithdraw        Action = "withdraw"
	ActionTransfer        Action = "transfer"
	ActionViewWallet      Action = "wallet.view"
	ActionCreateWallet    Action = "wallet.create"
	ActionSetWalletStatus Action = "wallet.set_status"
	ActionSetUserStatus   Action = "user.set_status"
	ActionPromoteUser     Action = "user.promote"
	ActionListUsers       Action = "user.list"
	ActionCreateCurrency  Action = "currency.create"
)

// Resource describes what an action targets. OwnerID is empty for
// operations that are not scoped to a user.
type Resource struct {
	OwnerID string
}

// Policy decides whether an actor may perform an action on a resource.
type Policy interface {
	Allow(actor *User, action Action, resource Resource) error
}

// RolePolicy is the role based policy used by the wallet service.
type RolePolicy struct{}

// Allow implements Policy.
func (RolePolicy) Allow(actor *User, action Action, resource Resource) error {
	if actor == nil {
		return ErrUnauthorized
	}

	switch action {
	case ActionDeposit, ActionWithdraw:
		if actor.Role.IsStaff() {
			return nil
		}
	case ActionTransfer:
		if resource.OwnerID == actor.ID {
			return nil
		}
		return ErrUnauthorized
	case ActionViewWallet:
		if resource.OwnerID == actor.ID || actor.Role.IsStaff() {
			return nil
		}
	case ActionCreateWallet:
		if resource.OwnerID == actor.ID {
			return nil
		}
	case ActionSetWalletStatus, ActionSetUserStatus, ActionPromoteUser, ActionListUsers, ActionCreateCurrency:
		if actor.Role == RoleAdmin {
			return nil
		}
	}

	return ErrForbidden
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(actor *User, action Action, resource Resource) error

// Allow implements Policy.
func (f PolicyFunc) Allow(actor *User, action Action, resource Resource) error {
	return f(actor, action, resource)
}
