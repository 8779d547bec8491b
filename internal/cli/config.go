package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"apms/internal/adapters"
	"apms/internal/app"
	"apms/internal/types"
)

func newAppService() app.Service {
	return app.NewService(serviceConfig())
}

func setConfigDefaults() {
	viper.SetDefault("install_root", types.DefaultInstallRoot)
	viper.SetDefault("bin_dir", types.DefaultBinDir)
	viper.SetDefault("state_dir", types.DefaultStateDir)
	viper.SetDefault("staging_root", defaultStagingRoot())
	viper.SetDefault("mirrors_user_config", adapters.DefaultUserMirrorConfig())
	viper.SetDefault("mirrors_system_config", adapters.DefaultSystemMirrorConfig)
	viper.SetDefault("http_timeout_sec", 60)
	viper.SetDefault("progress", false)
	viper.SetDefault("require_root", true)
}

func serviceConfig() app.Config {
	return app.Config{
		Layout: types.Layout{
			InstallRoot: viper.GetString("install_root"),
			BinDir:      viper.GetString("bin_dir"),
			StagingRoot: viper.GetString("staging_root"),
			StateDir:    viper.GetString("state_dir"),
		},
		UserMirrorConfig:   viper.GetString("mirrors_user_config"),
		SystemMirrorConfig: viper.GetString("mirrors_system_config"),
		HTTPTimeout:        time.Duration(viper.GetInt("http_timeout_sec")) * time.Second,
		UserAgent:          "apms/" + version,
		Progress:           viper.GetBool("progress"),
		RequireRoot:        viper.GetBool("require_root"),
	}
}

// defaultStagingRoot is <home>/.apms/packages.
func defaultStagingRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), ".apms", "packages")
	}
	return filepath.Join(home, ".apms", "packages")
}
