package adapters

import (
	"os"

	"apms/internal/ports"
	"apms/internal/types"
)

// PrivilegeAdapter checks the effective user id. Enforce=false accepts
// any user, for layouts relocated outside system directories.
type PrivilegeAdapter struct {
	Enforce bool
	Geteuid func() int
}

func NewPrivilegeAdapter(enforce bool) PrivilegeAdapter {
	return PrivilegeAdapter{Enforce: enforce, Geteuid: os.Geteuid}
}

func (a PrivilegeAdapter) RequireElevated(op string) error {
	if !a.Enforce {
		return nil
	}
	geteuid := a.Geteuid
	if geteuid == nil {
		geteuid = os.Geteuid
	}
	if geteuid() != 0 {
		return &types.PermissionError{Op: op}
	}
	return nil
}

var _ ports.PrivilegePort = PrivilegeAdapter{}
