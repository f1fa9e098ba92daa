package engine

import (
	"context"
	"errors"
	"testing"
)

func TestWalk_WithIncludeExcludeGlobs(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.php":          "<?php",
		"src/b.js":       "x",
		"src/test/c.js":  "x",
		"legacy/old.php": "x",
	})

	// Include only src/**
	cfg := Config{Root: dir, IncludeGlobs: "src/**"}
	var got []string
	err := Walk(context.Background(), cfg, func(_, rel string) { got = append(got, rel) })
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "src/b.js" || got[1] != "src/test/c.js" {
		t.Fatalf("include globs failed, got %v", got)
	}

	// Exclude legacy and tests
	got = nil
	cfg = Config{Root: dir, ExcludeGlobs: "legacy/**, **/test/**"}
	if err := Walk(context.Background(), cfg, func(_, rel string) { got = append(got, rel) }); err != nil {
		t.Fatal(err)
	}
	for _, p := range got {
		if p == "legacy/old.php" || p == "src/test/c.js" {
			t.Fatalf("exclude globs failed, saw %s", p)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files after excludes, got %v", got)
	}
}

func TestCountTargets_RespectsGlobs(t *testing.T) {
	dir := writeTree(t, map[string]string{"keep.php": "x", "skip.js": "x", "notes.txt": "x"})
	n, err := CountTargets(context.Background(), Config{Root: dir, IncludeGlobs: "**/*.php"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 target, got %d", n)
	}
}

func TestCountTargets_HonorsContext(t *testing.T) {
	dir := writeTree(t, map[string]string{"keep.php": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := CountTargets(ctx, Config{Root: dir})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 targets after cancel, got %d", n)
	}
}

func TestParseExtensions(t *testing.T) {
	got := ParseExtensions(" .php, js,,php ,ts")
	want := []string{"php", "js", "ts"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if ParseExtensions("  ") != nil {
		t.Fatal("expected nil for blank input")
	}
}
