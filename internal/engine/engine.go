package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
	"golang.org/x/sync/errgroup"

	"github.com/redactyl/riskscan/internal/aggregate"
	"github.com/redactyl/riskscan/internal/log"
	"github.com/redactyl/riskscan/internal/rules"
	"github.com/redactyl/riskscan/internal/scanner"
	"github.com/redactyl/riskscan/internal/types"
)

// DefaultExtensions is the allow-list used when Config.Extensions is empty.
var DefaultExtensions = []string{"php", "js"}

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Root            string
	Extensions      []string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	Threads         int
	DefaultExcludes bool

	// Rules replaces the built-in rule table when non-nil.
	Rules []rules.Spec

	// FS defaults to the OS filesystem.
	FS     afero.Fs
	Logger *logrus.Entry

	// Progress is invoked once per file handed to a worker. Calls are
	// serialized.
	Progress func()
}

// Result contains findings and basic scan statistics.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	FilesSkipped int
	Duration     time.Duration
}

func withDefaults(cfg Config) Config {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	cfg.Extensions = NormalizeExtensions(cfg.Extensions)
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	return cfg
}

// LoadRules compiles cfg.Rules, or returns the built-in set when none are
// supplied. Any error is a *rules.ConfigurationError.
func LoadRules(cfg Config) (rules.Set, error) {
	if cfg.Rules == nil {
		return rules.Default(), nil
	}
	return rules.Compile(cfg.Rules)
}

// RuleNames returns the names of the rules a scan with cfg would apply.
func RuleNames(cfg Config) ([]string, error) {
	set, err := LoadRules(cfg)
	if err != nil {
		return nil, err
	}
	return set.Names(), nil
}

// Scan runs a scan and returns only findings (without stats).
func Scan(ctx context.Context, cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(ctx, cfg)
	return res.Findings, err
}

// ScanWithStats compiles the rules, walks cfg.Root and scans every eligible
// file on a bounded pool of workers. Findings are returned grouped by path
// and ordered by line, independent of the order workers finish in.
//
// If ctx is cancelled, no further files are dispatched, in-flight scans are
// awaited, and the partial result is returned along with ctx.Err().
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	var result Result

	set, err := LoadRules(cfg)
	if err != nil {
		return result, err
	}
	cfg = withDefaults(cfg)
	logE := cfg.Logger
	scnr := scanner.New(set)
	col := aggregate.NewCollector()

	var scanned, skipped atomic.Int64
	var progressMu sync.Mutex
	progress := func() {
		if cfg.Progress == nil {
			return
		}
		progressMu.Lock()
		cfg.Progress()
		progressMu.Unlock()
	}

	started := time.Now()
	logE.WithFields(logrus.Fields{
		"root":       cfg.Root,
		"extensions": cfg.Extensions,
		"rules":      set.Len(),
		"threads":    cfg.Threads,
	}).Debug("start scan")

	// A failing file must never cancel its siblings, so the group carries
	// no context of its own.
	var g errgroup.Group
	g.SetLimit(cfg.Threads)
	walkErr := Walk(ctx, cfg, func(realPath, rel string) {
		g.Go(func() error {
			defer progress()
			fs, err := scnr.ScanFile(cfg.FS, realPath, rel)
			if err != nil {
				skipped.Add(1)
				logerr.WithError(logE.WithField("path", rel), err).Debug("skip unreadable file")
				return nil
			}
			for i := range fs {
				fs[i].Fingerprint = Fingerprint(fs[i])
			}
			col.Add(rel, fs)
			scanned.Add(1)
			return nil
		})
	})
	_ = g.Wait()

	result.Findings = col.Findings()
	result.FilesScanned = int(scanned.Load())
	result.FilesSkipped = int(skipped.Load())
	result.Duration = time.Since(started)
	logE.WithFields(logrus.Fields{
		"findings":      len(result.Findings),
		"files_scanned": result.FilesScanned,
		"files_skipped": result.FilesSkipped,
		"duration":      result.Duration,
	}).Debug("scan finished")
	return result, walkErr
}

// Fingerprint returns a stable 16-hex-digit identifier for a finding that
// survives line shifts within the same file.
func Fingerprint(f types.Finding) string {
	return fastHash(f.Path + "|" + f.Rule + "|" + f.Snippet)
}

func fastHash(s string) string {
	sum := xxhash.Sum64String(s)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
