package ports

import "apms/internal/types"

// RegistryPort records which packages are installed.
type RegistryPort interface {
	Get(name string) (types.InstalledPackage, bool, error)
	List() ([]types.InstalledPackage, error)
	Record(pkg types.InstalledPackage) error
	Forget(name string) error
}
