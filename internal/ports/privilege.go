package ports

// PrivilegePort checks whether the process may mutate system locations.
type PrivilegePort interface {
	// RequireElevated returns *types.PermissionError naming op when the
	// process is not privileged.
	RequireElevated(op string) error
}
