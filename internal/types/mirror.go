package types

// MirrorScope records where a mirror list was loaded from.
type MirrorScope string

const (
	MirrorScopeUser    MirrorScope = "user"
	MirrorScopeSystem  MirrorScope = "system"
	MirrorScopeDefault MirrorScope = "default"
)

// Mirror is a named, prioritized source endpoint for package metadata and
// archives. Higher priorities are tried first.
type Mirror struct {
	Name     string `toml:"name"`
	URL      string `toml:"url"`
	Priority uint8  `toml:"priority"`
	Enabled  bool   `toml:"enabled"`
}

// MirrorList is the set of mirrors as loaded from disk. Names are not
// deduplicated and the on-disk order is kept.
type MirrorList struct {
	Mirrors []Mirror    `toml:"mirrors"`
	Source  MirrorScope `toml:"-"`
	Path    string      `toml:"-"`
}

const (
	DefaultMirrorName     = "Mirror @ Local"
	DefaultMirrorURL      = "http://localhost:8080"
	DefaultMirrorPriority = 100
)

// DefaultMirrorList is used when neither a user nor a system mirror
// configuration exists.
func DefaultMirrorList() MirrorList {
	return MirrorList{
		Mirrors: []Mirror{
			{
				Name:     DefaultMirrorName,
				URL:      DefaultMirrorURL,
				Priority: DefaultMirrorPriority,
				Enabled:  true,
			},
		},
		Source: MirrorScopeDefault,
	}
}
