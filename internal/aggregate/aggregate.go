// Package aggregate merges per-file finding sequences produced by concurrent
// scans into one collection whose order does not depend on which scan
// finished first.
package aggregate

import (
	"sort"
	"sync"

	"github.com/redactyl/riskscan/internal/types"
)

// Collector gathers findings keyed by file. Add is safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	byFile map[string][]types.Finding
}

func NewCollector() *Collector {
	return &Collector{byFile: map[string][]types.Finding{}}
}

// Add records the complete finding sequence for one file. Files with no
// findings are ignored. A second Add for the same path appends.
func (c *Collector) Add(path string, fs []types.Finding) {
	if len(fs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFile[path] = append(c.byFile[path], fs...)
}

// Files returns the number of files that produced at least one finding.
func (c *Collector) Files() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byFile)
}

// Findings returns every collected finding grouped by path in ascending
// byte order. Each file's own sequence is kept as the scanner produced it.
func (c *Collector) Findings() []types.Finding {
	c.mu.Lock()
	defer c.mu.Unlock()
	paths := make([]string, 0, len(c.byFile))
	n := 0
	for p, fs := range c.byFile {
		paths = append(paths, p)
		n += len(fs)
	}
	sort.Strings(paths)
	out := make([]types.Finding, 0, n)
	for _, p := range paths {
		out = append(out, c.byFile[p]...)
	}
	return out
}

// Sort orders findings by path, then line. It is stable, so findings on the
// same line keep their rule order.
func Sort(fs []types.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Path != fs[j].Path {
			return fs[i].Path < fs[j].Path
		}
		return fs[i].Line < fs[j].Line
	})
}
