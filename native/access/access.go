// Package access keeps role membership in state and answers the single
// authorization predicate every privileged entry point consults.
package access

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	errs "tokensale/core/errors"
	"tokensale/core/events"
	"tokensale/core/types"
)

// Role names a privilege.
type Role string

const (
	// RoleOwner may reconfigure the sale, manage roles and pause modules.
	RoleOwner Role = "owner"
	// RoleOperator may run day-to-day privileged operations (manual
	// distribution, referral and vesting roster management).
	RoleOperator Role = "operator"
	// RoleWhitelisted may purchase when the whitelist is enforced.
	RoleWhitelisted Role = "whitelisted"
)

var (
	ErrUnauthorized = errs.New(errs.ErrAuthorization, "access: caller lacks required role")
	ErrInvalidRole  = errs.New(errs.ErrValidation, "access: invalid role")
	ErrZeroAccount  = errs.New(errs.ErrValidation, "access: zero account")
)

var rolePrefix = []byte("access/role/")

// Authorizer reports whether caller holds role.
type Authorizer interface {
	Authorized(caller common.Address, role Role) bool
}

// State is the subset of the state manager the registry needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	AppendEvent(evt *types.Event)
}

// ParseRole normalises a role name.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleOperator:
		return RoleOperator, nil
	case RoleWhitelisted:
		return RoleWhitelisted, nil
	default:
		return "", errs.Wrapf(ErrInvalidRole, "%q", raw)
	}
}

// Registry is the state-backed Authorizer.
type Registry struct {
	state State
}

// NewRegistry binds a registry to st.
func NewRegistry(st State) *Registry { return &Registry{state: st} }

func roleKey(role Role, addr common.Address) []byte {
	buf := make([]byte, 0, len(rolePrefix)+len(role)+1+common.AddressLength)
	buf = append(buf, rolePrefix...)
	buf = append(buf, role...)
	buf = append(buf, '/')
	buf = append(buf, addr[:]...)
	return buf
}

// HasRole reports direct membership. Read failures count as non-membership.
func (r *Registry) HasRole(role Role, addr common.Address) bool {
	if r == nil || r.state == nil || addr == (common.Address{}) {
		return false
	}
	var member bool
	ok, err := r.state.KVGet(roleKey(role, addr), &member)
	return err == nil && ok && member
}

// Authorized implements Authorizer. Owners implicitly hold the operator role.
func (r *Registry) Authorized(caller common.Address, role Role) bool {
	if r.HasRole(role, caller) {
		return true
	}
	return role == RoleOperator && r.HasRole(RoleOwner, caller)
}

// Require returns ErrUnauthorized unless caller holds role.
func Require(auth Authorizer, caller common.Address, role Role) error {
	if auth == nil || !auth.Authorized(caller, role) {
		return errs.Wrapf(ErrUnauthorized, "%s requires %s", caller.Hex(), role)
	}
	return nil
}

// Grant adds account to role on behalf of an owner.
func (r *Registry) Grant(caller common.Address, role Role, account common.Address) error {
	if err := Require(r, caller, RoleOwner); err != nil {
		return err
	}
	return r.set(caller, role, account, true)
}

// Revoke removes account from role on behalf of an owner.
func (r *Registry) Revoke(caller common.Address, role Role, account common.Address) error {
	if err := Require(r, caller, RoleOwner); err != nil {
		return err
	}
	return r.set(caller, role, account, false)
}

// Bootstrap grants a role without an authorization check. It is only used
// while applying genesis.
func (r *Registry) Bootstrap(role Role, account common.Address) error {
	return r.set(common.Address{}, role, account, true)
}

func (r *Registry) set(caller common.Address, role Role, account common.Address, granted bool) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	if account == (common.Address{}) {
		return ErrZeroAccount
	}
	if r.HasRole(role, account) == granted {
		return nil
	}
	var err error
	if granted {
		err = r.state.KVPut(roleKey(role, account), true)
	} else {
		err = r.state.KVDelete(roleKey(role, account))
	}
	if err != nil {
		return err
	}
	r.state.AppendEvent(events.RoleChanged{Role: string(role), Account: account, Caller: caller, Granted: granted}.Event())
	return nil
}
