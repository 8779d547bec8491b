package core

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"apms/internal/types"
)

// OrderMirrors returns the enabled mirrors of list sorted by descending
// priority. Mirrors with equal priority keep their load order. Disabled
// mirrors never appear, not even as a last resort.
func OrderMirrors(list types.MirrorList) []types.Mirror {
	ordered := make([]types.Mirror, 0, len(list.Mirrors))
	for _, mirror := range list.Mirrors {
		if mirror.Enabled {
			ordered = append(ordered, mirror)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered
}

// ValidateMirror checks a mirror before it is added to a persisted list.
func ValidateMirror(mirror types.Mirror) error {
	if strings.TrimSpace(mirror.Name) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("mirror name is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(mirror.URL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("mirror url must be an absolute http(s) url: %q", mirror.URL))
	}
	return nil
}

// AddMirror appends mirror to list. Names must be unique among mirrors
// added through this path.
func AddMirror(list types.MirrorList, mirror types.Mirror) (types.MirrorList, error) {
	if err := ValidateMirror(mirror); err != nil {
		return list, err
	}
	for _, existing := range list.Mirrors {
		if existing.Name == mirror.Name {
			return list, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("mirror %q already exists", mirror.Name))
		}
	}
	mirror.URL = strings.TrimRight(strings.TrimSpace(mirror.URL), "/")
	out := cloneMirrorList(list)
	out.Mirrors = append(out.Mirrors, mirror)
	return out, nil
}

// RemoveMirror drops every mirror named name.
func RemoveMirror(list types.MirrorList, name string) (types.MirrorList, error) {
	out := cloneMirrorList(list)
	out.Mirrors = out.Mirrors[:0]
	removed := 0
	for _, mirror := range list.Mirrors {
		if mirror.Name == name {
			removed++
			continue
		}
		out.Mirrors = append(out.Mirrors, mirror)
	}
	if removed == 0 {
		return list, mirrorNotFound(name)
	}
	return out, nil
}

// SetMirrorEnabled toggles every mirror named name.
func SetMirrorEnabled(list types.MirrorList, name string, enabled bool) (types.MirrorList, error) {
	out := cloneMirrorList(list)
	found := false
	for i := range out.Mirrors {
		if out.Mirrors[i].Name == name {
			out.Mirrors[i].Enabled = enabled
			found = true
		}
	}
	if !found {
		return list, mirrorNotFound(name)
	}
	return out, nil
}

func cloneMirrorList(list types.MirrorList) types.MirrorList {
	out := list
	out.Mirrors = append([]types.Mirror(nil), list.Mirrors...)
	return out
}

func mirrorNotFound(name string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("mirror %q not found", name))
}
