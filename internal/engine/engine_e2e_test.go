package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redactyl/riskscan/internal/aggregate"
	"github.com/redactyl/riskscan/internal/rules"
	"github.com/redactyl/riskscan/internal/types"
)

func TestScanWithStats_EvalScenario(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.php": "<?php\n// entry\n\nfunction run() {\n    $x = eval($_GET['c']);\n}\n",
	})
	res, err := ScanWithStats(context.Background(), Config{Root: dir, Threads: 2})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, "app.php", f.Path)
	assert.Equal(t, 5, f.Line)
	assert.Equal(t, "Dangerous Eval", f.Rule)
	assert.Equal(t, types.SevHigh, f.Severity)
	assert.Equal(t, "$x = eval($_GET['c']);", f.Snippet)
	assert.Len(t, f.Fingerprint, 16)
	assert.Equal(t, 1, res.FilesScanned)
}

func TestScanWithStats_TwoRulesOneLine(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"config.js": "// settings\nconst api_key = \"AKIA1234567890ABCDEF\";\n",
	})
	fs, err := Scan(context.Background(), Config{Root: dir})
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, "AWS Access Key", fs[0].Rule)
	assert.Equal(t, types.SevCritical, fs[0].Severity)
	assert.Equal(t, "Generic API Key", fs[1].Rule)
	assert.Equal(t, types.SevHigh, fs[1].Severity)
	assert.Equal(t, 2, fs[0].Line)
	assert.Equal(t, 2, fs[1].Line)
	assert.NotEqual(t, fs[0].Fingerprint, fs[1].Fingerprint)
}

func TestScanWithStats_NoFindings(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"notes.txt": "eval( password = \"hunter22\"",
		"clean.php": "<?php echo 'hello';\n",
	})
	res, err := ScanWithStats(context.Background(), Config{Root: dir})
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	assert.Equal(t, 1, res.FilesScanned)
}

func TestScanWithStats_MissingRoot(t *testing.T) {
	res, err := ScanWithStats(context.Background(), Config{Root: filepath.Join(t.TempDir(), "does-not-exist")})
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	assert.Zero(t, res.FilesScanned)
}

func TestScanWithStats_UnreadableFilesDoNotAbort(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.php":      "eval(1)\n",
		"binary.js":  "eval(\x00\x01)\n",
		"latin1.php": "system(\xe9)\n",
		"z.js":       "exec(2)\n",
	})
	if os.Geteuid() != 0 {
		locked := filepath.Join(dir, "locked.php")
		require.NoError(t, os.WriteFile(locked, []byte("eval(3)\n"), 0o000))
	}
	res, err := ScanWithStats(context.Background(), Config{Root: dir, Threads: 4})
	require.NoError(t, err)
	require.Len(t, res.Findings, 2)
	assert.Equal(t, "a.php", res.Findings[0].Path)
	assert.Equal(t, "z.js", res.Findings[1].Path)
	assert.Equal(t, 2, res.FilesScanned)
	assert.GreaterOrEqual(t, res.FilesSkipped, 2)
}

func TestScanWithStats_DeterministicAcrossThreadCounts(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for i := 0; i < 120; i++ {
		body := fmt.Sprintf("line\n$a = eval($b%d);\npassword = \"secret%03d\"\nexec(x); system(y)\n", i, i)
		p := fmt.Sprintf("/repo/pkg%d/file%03d.php", i%7, i)
		require.NoError(t, afero.WriteFile(fsys, p, []byte(body), 0o644))
	}

	var reference []types.Finding
	for _, threads := range []int{1, 2, 8, 32, 1, 8} {
		fs, err := Scan(context.Background(), Config{Root: "/repo", FS: fsys, Threads: threads})
		require.NoError(t, err)
		if reference == nil {
			reference = fs
			continue
		}
		if diff := cmp.Diff(reference, fs); diff != "" {
			t.Fatalf("threads=%d changed output (-want +got):\n%s", threads, diff)
		}
	}
	assert.Len(t, reference, 120*4)
	assert.True(t, cmp.Equal(reference, sortedCopy(reference)))
}

func sortedCopy(fs []types.Finding) []types.Finding {
	out := append([]types.Finding(nil), fs...)
	aggregate.Sort(out)
	return out
}

func TestScanWithStats_ConfigurationErrorBeforeWalk(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/a.php", []byte("eval(1)"), 0o644))
	_, err := ScanWithStats(context.Background(), Config{
		Root:  "/",
		FS:    fsys,
		Rules: []rules.Spec{{Name: "bad", Pattern: `(unclosed`, Severity: "HIGH"}},
		Progress: func() {
			t.Fatal("no file may be touched on configuration error")
		},
	})
	var ce *rules.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "bad", ce.Rule)
}

func TestScanWithStats_CustomRulesAndExtensions(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.py":  "import os\nos.popen('ls')\n",
		"index.js": "eval(x)\n",
	})
	res, err := ScanWithStats(context.Background(), Config{
		Root:       dir,
		Extensions: []string{"py"},
		Rules:      []rules.Spec{{Name: "Shell Pipe", Pattern: `popen\(`, Severity: "medium"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "main.py", res.Findings[0].Path)
	assert.Equal(t, "Shell Pipe", res.Findings[0].Rule)
	assert.Equal(t, types.SevMedium, res.Findings[0].Severity)
}

func TestScanWithStats_Cancelled(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.php": "eval(1)\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := ScanWithStats(ctx, Config{Root: dir})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Findings)
}

func TestScanWithStats_ProgressPerFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.php": "x", "b.js": "x", "c/d.php": "x", "e.txt": "x"})
	calls := 0
	_, err := ScanWithStats(context.Background(), Config{Root: dir, Threads: 3, Progress: func() { calls++ }})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRuleNames(t *testing.T) {
	names, err := RuleNames(Config{})
	require.NoError(t, err)
	assert.Len(t, names, 6)

	_, err = RuleNames(Config{Rules: []rules.Spec{{Name: "x", Pattern: `[`, Severity: "LOW"}}})
	assert.Error(t, err)
}

func TestFingerprint_StableAcrossLines(t *testing.T) {
	a := types.Finding{Path: "a.php", Line: 3, Rule: "Dangerous Eval", Snippet: "eval(x)"}
	b := a
	b.Line = 40
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	b.Path = "b.php"
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
