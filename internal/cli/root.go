package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"apms/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "APMS"

type RootConfig struct {
	ConfigFile string
	LogLevel   string
}

func Execute() {
	setupLogging(os.Stdout, "info")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCommand()
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Msg(err.Error())
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "apms",
		Short:         "Azine's Package Manager",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(os.Stdout, viper.GetString("log_level"))
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(log.Logger.WithContext(ctx))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newDeleteCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newMirrorsCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	setConfigDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("apms")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.config/apms")
	viper.AddConfigPath("/etc/apms")
	// A missing default config file is not an error.
	_ = viper.ReadInConfig()
	return nil
}

func setupLogging(out io.Writer, level string) {
	log.Logger = zerolog.New(newConsoleWriter(out)).With().Logger()
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// newConsoleWriter renders records as "[LEVEL] message key=value".
func newConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         out,
		NoColor:     true,
		PartsOrder:  []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: formatLevel,
	}
}

func formatLevel(value interface{}) string {
	level, _ := value.(string)
	switch level {
	case zerolog.LevelWarnValue:
		return "[WARNING]"
	case "":
		return "[INFO]"
	default:
		return "[" + strings.ToUpper(level) + "]"
	}
}

// Exit codes returned by Execute.
const (
	exitGeneric         = 1
	exitInvalidArgument = 2
	exitPermission      = 3
	exitNotInstalled    = 4
	exitMirrors         = 5
	exitInstallFailed   = 6
	exitLocked          = 7
)

func exitCodeForError(err error) int {
	var (
		permission   *types.PermissionError
		config       *types.ConfigError
		noMirrors    *types.NoMirrorsError
		aggregate    *types.AggregateFetchError
		metadata     *types.MetadataError
		archive      *types.ArchiveError
		filesystem   *types.FilesystemError
		notInstalled *types.NotInstalledError
		locked       *types.LockedError
	)
	switch {
	case errors.As(err, &permission):
		return exitPermission
	case errors.As(err, &config):
		return exitInvalidArgument
	case errors.As(err, &noMirrors), errors.As(err, &aggregate), errors.As(err, &metadata):
		return exitMirrors
	case errors.As(err, &archive):
		return exitInstallFailed
	case errors.As(err, &filesystem):
		if filesystem.Step.IsDelete() {
			return exitGeneric
		}
		return exitInstallFailed
	case errors.As(err, &notInstalled):
		return exitNotInstalled
	case errors.As(err, &locked):
		return exitLocked
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return exitInvalidArgument
	case errbuilder.CodePermissionDenied:
		return exitPermission
	case errbuilder.CodeNotFound:
		return exitNotInstalled
	default:
		return exitGeneric
	}
}

// exactlyOnePackage validates the single positional package argument.
func exactlyOnePackage(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("expected exactly one package name, received %d", len(args)))
	}
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
