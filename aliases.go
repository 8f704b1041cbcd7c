package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Aliases maps symbolic folder names, written as <shell:Name> in destinations,
// to directories.
type Aliases map[string]string

var regexAlias = regexp.MustCompile(`<shell:([^>]+)>`)

// DefaultAliases derives the well-known user folders from the home directory.
// XDG_PICTURES_DIR and XDG_VIDEOS_DIR win over the home-based defaults.
func DefaultAliases(home string, getenv func(string) string) Aliases {
	pictures := firstNonEmpty(expandHome(getenv("XDG_PICTURES_DIR"), home), filepath.Join(home, "Pictures"))
	videos := firstNonEmpty(expandHome(getenv("XDG_VIDEOS_DIR"), home), filepath.Join(home, "Videos"))
	return Aliases{
		"Home":        home,
		"Pictures":    pictures,
		"My Pictures": pictures,
		"Videos":      videos,
		"My Video":    videos,
	}
}

func systemAliases() Aliases {
	home, err := os.UserHomeDir()
	if err != nil {
		return Aliases{}
	}
	return DefaultAliases(home, os.Getenv)
}

// Resolve expands every <shell:Name> in path and makes it absolute.
func (a Aliases) Resolve(path string) (string, error) {
	var unknown []string
	out := regexAlias.ReplaceAllStringFunc(path, func(m string) string {
		name := regexAlias.FindStringSubmatch(m)[1]
		dir, ok := a[name]
		if !ok {
			unknown = append(unknown, name)
			return m
		}
		return dir
	})
	if len(unknown) > 0 {
		return "", fmt.Errorf("unknown folder alias %q in %s", strings.Join(unknown, ", "), path)
	}
	return filepath.Abs(out)
}

func (a Aliases) ResolveAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := a.Resolve(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func expandHome(path, home string) string {
	path = strings.Trim(path, `"`)
	if strings.HasPrefix(path, "$HOME") {
		return filepath.Join(home, strings.TrimPrefix(path, "$HOME"))
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
