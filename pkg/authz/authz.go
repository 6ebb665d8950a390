package authz

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Role names a capability a caller may hold.
type Role string

const (
	// RoleAdmin gates campaign management, deposits and withdrawals.
	RoleAdmin Role = "admin"
)

// Authorizer answers whether a caller holds a role. The distributor treats
// authorization as an opaque injected predicate; the role graph itself lives
// with the host.
type Authorizer interface {
	Authorized(caller common.Address, role Role) bool
}

// StaticAuthorizer grants RoleAdmin to a fixed address set. Suitable for
// tests and single-operator deployments.
type StaticAuthorizer struct {
	mu     sync.RWMutex
	admins map[common.Address]struct{}
}

var _ Authorizer = (*StaticAuthorizer)(nil)

// NewStaticAuthorizer builds an authorizer over the given admin addresses.
func NewStaticAuthorizer(admins ...common.Address) *StaticAuthorizer {
	set := make(map[common.Address]struct{}, len(admins))
	for _, a := range admins {
		set[a] = struct{}{}
	}
	return &StaticAuthorizer{admins: set}
}

// Authorized reports whether caller holds role.
func (a *StaticAuthorizer) Authorized(caller common.Address, role Role) bool {
	if role != RoleAdmin {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.admins[caller]
	return ok
}

// Grant adds an admin at runtime.
func (a *StaticAuthorizer) Grant(admin common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.admins[admin] = struct{}{}
}

// Revoke removes an admin at runtime.
func (a *StaticAuthorizer) Revoke(admin common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.admins, admin)
}
