package adapters

import (
	"errors"
	"io/fs"
	"os"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"apms/internal/ports"
	"apms/internal/types"
)

// RegistryFileAdapter keeps the installed package registry in a YAML file.
// Every call re-reads the file; apms invocations are short lived and
// another process may have changed it in between.
type RegistryFileAdapter struct {
	Path string
}

func NewRegistryFileAdapter(path string) RegistryFileAdapter {
	return RegistryFileAdapter{Path: path}
}

func (a RegistryFileAdapter) Get(name string) (types.InstalledPackage, bool, error) {
	registry, err := a.load()
	if err != nil {
		return types.InstalledPackage{}, false, err
	}
	for _, pkg := range registry.Packages {
		if pkg.Name == name {
			return pkg, true, nil
		}
	}
	return types.InstalledPackage{}, false, nil
}

func (a RegistryFileAdapter) List() ([]types.InstalledPackage, error) {
	registry, err := a.load()
	if err != nil {
		return nil, err
	}
	return registry.Packages, nil
}

func (a RegistryFileAdapter) Record(pkg types.InstalledPackage) error {
	registry, err := a.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range registry.Packages {
		if registry.Packages[i].Name == pkg.Name {
			registry.Packages[i] = pkg
			replaced = true
		}
	}
	if !replaced {
		registry.Packages = append(registry.Packages, pkg)
	}
	return a.save(registry)
}

func (a RegistryFileAdapter) Forget(name string) error {
	registry, err := a.load()
	if err != nil {
		return err
	}
	kept := registry.Packages[:0]
	for _, pkg := range registry.Packages {
		if pkg.Name != name {
			kept = append(kept, pkg)
		}
	}
	if len(kept) == len(registry.Packages) {
		return nil
	}
	registry.Packages = kept
	return a.save(registry)
}

func (a RegistryFileAdapter) load() (types.RegistryFile, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.RegistryFile{Version: types.RegistryFileVersion}, nil
		}
		return types.RegistryFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read package registry").
			WithCause(err)
	}
	var registry types.RegistryFile
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return types.RegistryFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid package registry format").
			WithCause(err)
	}
	if registry.Version == 0 {
		registry.Version = types.RegistryFileVersion
	}
	sortPackages(registry.Packages)
	return registry, nil
}

func (a RegistryFileAdapter) save(registry types.RegistryFile) error {
	sortPackages(registry.Packages)
	data, err := yaml.Marshal(registry)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to serialize package registry").
			WithCause(err)
	}
	if err := writeFileAtomic(a.Path, data, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write package registry").
			WithCause(err)
	}
	return nil
}

func sortPackages(packages []types.InstalledPackage) {
	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].Name < packages[j].Name
	})
}

var _ ports.RegistryPort = RegistryFileAdapter{}
