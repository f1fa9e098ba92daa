package engine

import (
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

var defaultExcludeDirs = map[string]bool{
	".git":             true,
	".hg":              true,
	".svn":             true,
	"node_modules":     true,
	"bower_components": true,
	"vendor":           true,
	"dist":             true,
	"build":            true,
	"out":              true,
	"coverage":         true,
	".next":            true,
	".nuxt":            true,
	".cache":           true,
}

// bundled or generated sources that are noisy rather than authored code
var defaultExcludeFileSuffixes = []string{
	".min.js",
	".bundle.js",
	".chunk.js",
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name]
}

func isDefaultFileExcluded(lowerRel string) bool {
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	// generic generated artifacts pattern
	return strings.Contains(filepath.Base(lowerRel), ".gen.")
}

// NormalizeExtensions trims leading dots and blanks and drops duplicates
// while keeping the first-seen order.
func NormalizeExtensions(exts []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range exts {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// ParseExtensions splits a comma-separated extension list.
func ParseExtensions(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeExtensions(strings.Split(s, ","))
}

// hasAllowedExtension compares the text after the last dot of the base name
// exactly against the allow-list. Names without a dot have no extension.
func hasAllowedExtension(name string, allowed map[string]bool) bool {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return false
	}
	return allowed[strings.TrimPrefix(ext, ".")]
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob configuration. Include globs are comma-separated and, if provided, act as
// a positive filter. Exclude globs are subtracted last. Matching uses forward-slash
// semantics via doublestar.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
