package types

import (
	"fmt"
)

// InstallStep names a stage of the install, delete or staging pipelines.
// It is carried by ArchiveError and FilesystemError so callers can tell
// which step failed.
type InstallStep string

const (
	StepCreateInstallDir    InstallStep = "create install directory"
	StepOpenArchive         InstallStep = "open archive"
	StepExtractArchive      InstallStep = "extract archive"
	StepResolveEntryPoint   InstallStep = "resolve entry point"
	StepCreateLauncherDir   InstallStep = "create launcher directory"
	StepRemoveStaleLauncher InstallStep = "remove stale launcher"
	StepCreateLauncher      InstallStep = "create launcher"
	StepWriteStaging        InstallStep = "write staged archive"
	StepRemoveLauncher      InstallStep = "remove launcher"
	StepRemoveInstallDir    InstallStep = "remove install directory"
	StepRemoveStaging       InstallStep = "remove staged archive"
)

// IsDelete reports whether the step belongs to the delete pipeline.
func (s InstallStep) IsDelete() bool {
	return s == StepRemoveLauncher || s == StepRemoveInstallDir
}

// PermissionError reports an operation that needs elevated privileges.
type PermissionError struct {
	Op string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s requires root privileges, re-run with sudo", e.Op)
}

// ConfigError reports a mirror configuration file that exists but could
// not be read or parsed.
type ConfigError struct {
	Path  string
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("failed to parse mirror config %s: %v", e.Path, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// NoMirrorsError reports that no enabled mirror is configured.
type NoMirrorsError struct{}

func (e *NoMirrorsError) Error() string {
	return "no enabled mirrors found"
}

// MirrorFetchError is a single failed attempt against one mirror. Either
// StatusCode is set (non-success response) or Cause is (transport failure).
type MirrorFetchError struct {
	Mirror     string
	URL        string
	StatusCode int
	Cause      error
}

func (e *MirrorFetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mirror %s failed: %v", e.Mirror, e.Cause)
	}
	return fmt.Sprintf("package not found on mirror %s (status=%d url=%s)", e.Mirror, e.StatusCode, e.URL)
}

func (e *MirrorFetchError) Unwrap() error { return e.Cause }

// AggregateFetchError is returned once every mirror has failed. Its message
// is the message of the last attempt; Attempts keeps all of them in the
// order they were made.
type AggregateFetchError struct {
	Attempts []*MirrorFetchError
}

func (e *AggregateFetchError) Error() string {
	last := e.Last()
	if last == nil {
		return "all mirrors failed"
	}
	return last.Error()
}

// Last returns the most recent failed attempt, or nil.
func (e *AggregateFetchError) Last() *MirrorFetchError {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1]
}

func (e *AggregateFetchError) Unwrap() error {
	if last := e.Last(); last != nil {
		return last
	}
	return nil
}

// MetadataError reports a mirror that answered successfully with a
// document that is not valid package metadata.
type MetadataError struct {
	Mirror string
	URL    string
	Cause  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("failed to parse package information from mirror %s: %v", e.Mirror, e.Cause)
}

func (e *MetadataError) Unwrap() error { return e.Cause }

// ArchiveError reports a staged archive that could not be opened or
// extracted.
type ArchiveError struct {
	Step  InstallStep
	Path  string
	Cause error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Step, e.Path, e.Cause)
}

func (e *ArchiveError) Unwrap() error { return e.Cause }

// FilesystemError reports a failed directory, file or symlink mutation.
type FilesystemError struct {
	Step  InstallStep
	Path  string
	Cause error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Step, e.Path, e.Cause)
}

func (e *FilesystemError) Unwrap() error { return e.Cause }

// NotInstalledError reports a delete of a package whose install directory
// does not exist.
type NotInstalledError struct {
	Name string
	Path string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("package '%s' is not installed", e.Name)
}

// LockedError reports a package that another invocation is operating on.
type LockedError struct {
	Name string
	Path string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("package '%s' is locked by another apms process (%s)", e.Name, e.Path)
}
