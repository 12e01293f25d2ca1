package vcs

import (
	"path"
	"strings"
)

// RevisionInfo represents one historical revision of a remote resource.
type RevisionInfo struct {
	Number    int    // Monotonic revision number
	ID        string // Backend-native identifier (svn revision, git commit hash)
	Author    string
	Timestamp string // Opaque; stored as emitted by the backend
}

// DefaultSVNPathTemplate lays out resources the way the apertium svn tree does.
const DefaultSVNPathTemplate = "{location}/apertium-{entity}/apertium-{entity}.{entity}.{format}"

// DefaultGitPathTemplate addresses a resource inside a per-entity git repository.
const DefaultGitPathTemplate = "apertium-{entity}.{entity}.{format}"

// Locator addresses a resource in a remote repository.
type Locator struct {
	Root         string // Repository root (URL or local path)
	Location     string // Area within the repository, e.g. "languages" or "incubator"
	Entity       string // Resource name
	Format       string // Content format tag
	PathTemplate string
}

// Path renders the resource path relative to Root.
func (l Locator) Path() string {
	tmpl := l.PathTemplate
	if tmpl == "" {
		tmpl = DefaultSVNPathTemplate
	}
	r := strings.NewReplacer(
		"{location}", l.Location,
		"{entity}", l.Entity,
		"{format}", l.Format,
	)
	p := path.Clean("/" + r.Replace(tmpl))
	return strings.TrimPrefix(p, "/")
}

// URL joins Root and Path.
func (l Locator) URL() string {
	if l.Root == "" {
		return l.Path()
	}
	return strings.TrimRight(l.Root, "/") + "/" + l.Path()
}

func (l Locator) String() string {
	return l.URL()
}

// WithFormat returns a copy of the locator using the given format tag.
func (l Locator) WithFormat(format string) Locator {
	l.Format = format
	return l
}

// Fallback derives the alternate locator tried when the primary reports the
// resource absent. The location is replaced by fallbackLocation and the entity
// by its alias, when present. Returns nil if neither changes the path.
func (l Locator) Fallback(fallbackLocation string, aliases map[string]string) *Locator {
	alt := l
	if fallbackLocation != "" {
		alt.Location = fallbackLocation
	}
	if alias, ok := aliases[l.Entity]; ok && alias != "" {
		alt.Entity = alias
	}
	if alt.Path() == l.Path() {
		return nil
	}
	return &alt
}
