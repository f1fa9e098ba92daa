// Package audit keeps an append-only JSONL history of scan runs next to the
// scanned tree.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/redactyl/riskscan/internal/types"
)

const (
	maxTopFindings = 10
	maxRecordBytes = 1 << 20
)

type ScanRecord struct {
	Timestamp      time.Time        `json:"timestamp"`
	ScanID         string           `json:"scan_id"`
	Root           string           `json:"root"`
	TotalFindings  int              `json:"total_findings"`
	SeverityCounts map[string]int   `json:"severity_counts"`
	FilesScanned   int              `json:"files_scanned"`
	FilesSkipped   int              `json:"files_skipped"`
	Duration       string           `json:"duration"`
	FailOn         string           `json:"fail_on,omitempty"`
	Failed         bool             `json:"failed"`
	TopFindings    []FindingSummary `json:"top_findings,omitempty"`
}

// FindingSummary is a finding without its snippet. Snippets can hold the
// credential that triggered the rule, so they are never persisted.
type FindingSummary struct {
	Path     string `json:"path"`
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
}

type AuditLog struct {
	fs      afero.Fs
	logPath string
}

// NewAuditLog places the log inside root/.git when root is a git work tree,
// otherwise at root/.riskscan_audit.jsonl. A file root uses its directory.
func NewAuditLog(fs afero.Fs, root string) *AuditLog {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if st, err := fs.Stat(root); err == nil && !st.IsDir() {
		root = filepath.Dir(root)
	}
	logPath := filepath.Join(root, ".riskscan_audit.jsonl")
	if st, err := fs.Stat(filepath.Join(root, ".git")); err == nil && st.IsDir() {
		logPath = filepath.Join(root, ".git", "riskscan_audit.jsonl")
	}
	return &AuditLog{fs: fs, logPath: logPath}
}

func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns every record, newest first. Corrupt lines are skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := a.fs.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var record ScanRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", record.Timestamp.UnixNano())
	}

	// owner-only: records name files and rules that matched
	f, err := a.fs.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateScanRecord summarizes a finished scan.
func CreateScanRecord(
	root string,
	findings []types.Finding,
	filesScanned, filesSkipped int,
	duration time.Duration,
	failOn string,
	failed bool,
) ScanRecord {
	severityCounts := make(map[string]int)
	for _, f := range findings {
		severityCounts[f.Severity.String()]++
	}

	topFindings := make([]FindingSummary, 0, maxTopFindings)
	for i, f := range findings {
		if i >= maxTopFindings {
			break
		}
		topFindings = append(topFindings, FindingSummary{
			Path:     f.Path,
			Rule:     f.Rule,
			Severity: f.Severity.String(),
			Line:     f.Line,
		})
	}

	return ScanRecord{
		Timestamp:      time.Now().UTC(),
		Root:           root,
		TotalFindings:  len(findings),
		SeverityCounts: severityCounts,
		FilesScanned:   filesScanned,
		FilesSkipped:   filesSkipped,
		Duration:       duration.String(),
		FailOn:         failOn,
		Failed:         failed,
		TopFindings:    topFindings,
	}
}
