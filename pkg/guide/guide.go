// Package guide holds the operator guides shipped inside the binary and
// renders them for the terminal.
package guide

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/arthur-debert/bonsetup/pkg/errors"
)

//go:embed guides/*.md
var guidesFS embed.FS

// Guide names
const (
	Rustup   = "rustup"
	Maven    = "maven"
	Profiles = "profiles"
)

// Topic is one embedded guide
type Topic struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Names lists the available guides, sorted
func Names() []string {
	entries, err := fs.ReadDir(guidesFS, "guides")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".md" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}

// Get returns the guide with the given name
func Get(name string) (Topic, error) {
	data, err := guidesFS.ReadFile(path.Join("guides", name+".md"))
	if err != nil {
		return Topic{}, errors.Newf(errors.ErrNotFound, "no guide named %q (available: %s)",
			name, strings.Join(Names(), ", "))
	}
	return Topic{Name: name, Content: string(data)}, nil
}

// Render returns the named guide formatted by r
func Render(name string, r Renderer) (string, error) {
	topic, err := Get(name)
	if err != nil {
		return "", err
	}
	if r == nil {
		r = &PlainRenderer{}
	}
	return r.Render(topic.Content), nil
}
