package app

import (
	"time"

	"apms/internal/adapters"
	"apms/internal/ports"
	"apms/internal/types"
)

type Service struct {
	MirrorConfig ports.MirrorConfigPort
	Transport    ports.MirrorTransportPort
	Staging      ports.StagingPort
	Archives     ports.ArchivePort
	Filesystem   ports.FilesystemPort
	Registry     ports.RegistryPort
	Locks        ports.LockPort
	Privilege    ports.PrivilegePort
	Layout       types.Layout
	Clock        func() time.Time
}

// Config selects the filesystem layout and adapter settings for
// NewService.
type Config struct {
	Layout             types.Layout
	UserMirrorConfig   string
	SystemMirrorConfig string
	HTTPTimeout        time.Duration
	UserAgent          string
	Progress           bool
	RequireRoot        bool
}

func NewService(cfg Config) Service {
	return Service{
		MirrorConfig: adapters.NewMirrorConfigFileAdapter(cfg.UserMirrorConfig, cfg.SystemMirrorConfig),
		Transport:    adapters.NewHTTPTransportAdapter(cfg.HTTPTimeout, cfg.UserAgent),
		Staging:      adapters.NewStagingFileAdapter(cfg.Layout.StagingRoot, cfg.Progress),
		Archives:     adapters.NewTarGzArchiveAdapter(),
		Filesystem:   adapters.NewOSFilesystemAdapter(),
		Registry:     adapters.NewRegistryFileAdapter(cfg.Layout.RegistryPath()),
		Locks:        adapters.NewLockFileAdapter(cfg.Layout.LockDir()),
		Privilege:    adapters.NewPrivilegeAdapter(cfg.RequireRoot),
		Layout:       cfg.Layout,
		Clock:        time.Now,
	}
}
