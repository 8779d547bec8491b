package policies

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Package names and versions end up as path components under the install,
// staging and launcher roots, so they may not contain separators or be
// relative path elements.
var (
	packageNamePattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+-]*$`)
	packageVersionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+~:-]*$`)
)

const maxPackageNameLength = 128

func ValidatePackageName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name is required")
	}
	if len(trimmed) > maxPackageNameLength {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("package name exceeds %d characters", maxPackageNameLength))
	}
	if trimmed != name || !packageNamePattern.MatchString(name) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package name %q", name))
	}
	return nil
}

func ValidatePackageVersion(version string) error {
	if strings.TrimSpace(version) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package version is required")
	}
	if !packageVersionPattern.MatchString(version) || strings.Contains(version, "..") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package version %q", version))
	}
	return nil
}
