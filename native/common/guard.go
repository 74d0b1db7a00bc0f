package common

import "errors"

var (
	ErrModulePaused = errors.New("module paused")
	ErrBlacklisted  = errors.New("address blacklisted")
	ErrUnauthorized = errors.New("caller missing required role")
)

// Module names recognised by the pause switchboard.
const (
	ModuleMarket = "market"
	ModuleToken  = "token"
)

// Role identifiers honoured by the guard layer.
const (
	RoleMinter = "ROLE_MINTER"
	RoleAdmin  = "ROLE_ADMIN"
)

type PauseView interface {
	IsPaused(module string) bool
}

type BlacklistView interface {
	IsBlacklisted(addr [20]byte) bool
}

type RoleView interface {
	HasRole(role string, addr [20]byte) bool
}

// Guard rejects the operation when the module is paused. A nil view or empty
// module name disables the check, matching optional wiring in tests.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// GuardBlacklist rejects the operation when any of the supplied addresses is
// blacklisted.
func GuardBlacklist(b BlacklistView, addrs ...[20]byte) error {
	if b == nil {
		return nil
	}
	for _, addr := range addrs {
		if b.IsBlacklisted(addr) {
			return ErrBlacklisted
		}
	}
	return nil
}

// GuardRole rejects the operation unless the address holds the role. Unlike
// the pause and blacklist gates a nil view fails closed: role-gated actions
// must never succeed by omission.
func GuardRole(r RoleView, role string, addr [20]byte) error {
	if r == nil || !r.HasRole(role, addr) {
		return ErrUnauthorized
	}
	return nil
}
