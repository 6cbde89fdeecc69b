package events

import (
	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/types"
)

const (
	TypeRoleGranted   = "access.role.granted"
	TypeRoleRevoked   = "access.role.revoked"
	TypeModulePaused  = "module.paused"
	TypeModuleResumed = "module.resumed"
)

// RoleChanged captures a role grant or revocation.
type RoleChanged struct {
	Role    string
	Account common.Address
	Caller  common.Address
	Granted bool
}

func (e RoleChanged) EventType() string {
	if e.Granted {
		return TypeRoleGranted
	}
	return TypeRoleRevoked
}

func (e RoleChanged) Event() *types.Event {
	return &types.Event{Type: e.EventType(), Attributes: map[string]string{
		"role":    e.Role,
		"account": formatAddress(e.Account),
		"caller":  formatAddress(e.Caller),
	}}
}

// ModulePause captures a pause toggle.
type ModulePause struct {
	Module string
	Caller common.Address
	Paused bool
}

func (e ModulePause) EventType() string {
	if e.Paused {
		return TypeModulePaused
	}
	return TypeModuleResumed
}

func (e ModulePause) Event() *types.Event {
	return &types.Event{Type: e.EventType(), Attributes: map[string]string{
		"module": e.Module,
		"caller": formatAddress(e.Caller),
	}}
}
