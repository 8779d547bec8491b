package core

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"
)

// VersionChange describes how an incoming package version relates to the
// installed one.
type VersionChange string

const (
	VersionChangeInstall   VersionChange = "installing"
	VersionChangeReinstall VersionChange = "reinstalling"
	VersionChangeUpgrade   VersionChange = "upgrading"
	VersionChangeDowngrade VersionChange = "downgrading"
	VersionChangeReplace   VersionChange = "replacing"
)

// CompareVersions orders two package versions. Debian ordering is tried
// first since most archives follow it; PEP 440 covers the rest.
func CompareVersions(a string, b string) (int, error) {
	if a == b {
		return 0, nil
	}
	if da, err := debversion.NewVersion(a); err == nil {
		if db, err := debversion.NewVersion(b); err == nil {
			return da.Compare(db), nil
		}
	}
	if pa, err := pep440.Parse(a); err == nil {
		if pb, err := pep440.Parse(b); err == nil {
			return pa.Compare(pb), nil
		}
	}
	return 0, errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("versions %q and %q are not comparable", a, b))
}

// ClassifyVersionChange compares the installed version (empty if none)
// with the incoming one.
func ClassifyVersionChange(installed string, incoming string) VersionChange {
	if installed == "" {
		return VersionChangeInstall
	}
	cmp, err := CompareVersions(installed, incoming)
	if err != nil {
		return VersionChangeReplace
	}
	switch {
	case cmp < 0:
		return VersionChangeUpgrade
	case cmp > 0:
		return VersionChangeDowngrade
	default:
		return VersionChangeReinstall
	}
}
