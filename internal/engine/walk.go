package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// TraversalError reports a filesystem entry that could not be listed or
// resolved during the walk. The entry is skipped; the walk continues.
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string { return fmt.Sprintf("walk %s: %v", e.Path, e.Err) }

func (e *TraversalError) Unwrap() error { return e.Err }

// Walk traverses cfg.Root and invokes handle for each eligible file with its
// real path and its root-relative, slash-separated display path. Entries are
// visited in lexical order. A missing or unreadable root yields no files.
func Walk(ctx context.Context, cfg Config, handle func(realPath, relPath string)) error {
	cfg = withDefaults(cfg)
	logE := cfg.Logger
	allowed := map[string]bool{}
	for _, e := range cfg.Extensions {
		allowed[e] = true
	}
	root := resolveRoot(cfg.FS, filepath.Clean(cfg.Root))

	return afero.Walk(cfg.FS, root, func(p string, info os.FileInfo, err error) error {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			skipEntry(logE, &TraversalError{Path: p, Err: err})
			return nil
		}
		if info.IsDir() {
			if p != root && cfg.DefaultExcludes && isDefaultDirExcluded(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasAllowedExtension(info.Name(), allowed) {
			return nil
		}
		rel := relPath(root, p)
		if !allowedByGlobs(rel, cfg) {
			return nil
		}
		if cfg.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := cfg.FS.Stat(p)
			if err != nil {
				skipEntry(logE, &TraversalError{Path: p, Err: err})
				return nil
			}
			info = resolved
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if cfg.MaxBytes > 0 && info.Size() > cfg.MaxBytes {
			logE.WithFields(logrus.Fields{
				"path":      rel,
				"size":      info.Size(),
				"max_bytes": cfg.MaxBytes,
			}).Debug("skip large file")
			return nil
		}
		handle(p, rel)
		return nil
	})
}

// resolveRoot follows the root itself when it is a symlink to a directory.
// Symlinked directories below the root are still not descended into.
func resolveRoot(fsys afero.Fs, root string) string {
	ls, ok := fsys.(afero.Lstater)
	if !ok {
		return root
	}
	info, lstatted, err := ls.LstatIfPossible(root)
	if err != nil || !lstatted || info.Mode()&os.ModeSymlink == 0 {
		return root
	}
	if st, err := fsys.Stat(root); err != nil || !st.IsDir() {
		return root
	}
	if _, isOS := fsys.(*afero.OsFs); isOS {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			return resolved
		}
		return root
	}
	lr, ok := fsys.(afero.LinkReader)
	if !ok {
		return root
	}
	target, err := lr.ReadlinkIfPossible(root)
	if err != nil {
		return root
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(root), target)
	}
	return filepath.Clean(target)
}

func skipEntry(logE *logrus.Entry, err *TraversalError) {
	logerr.WithError(logE.WithField("path", err.Path), err).Debug("skip entry")
}

func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return filepath.ToSlash(filepath.Base(p))
	}
	return filepath.ToSlash(rel)
}

// ListTargets returns the display paths of every eligible file in sorted
// order without opening any of them.
func ListTargets(ctx context.Context, cfg Config) ([]string, error) {
	var out []string
	err := Walk(ctx, cfg, func(_, rel string) {
		out = append(out, rel)
	})
	sort.Strings(out)
	return out, err
}

// CountTargets returns how many files a scan with cfg would open.
func CountTargets(ctx context.Context, cfg Config) (int, error) {
	files, err := ListTargets(ctx, cfg)
	return len(files), err
}
