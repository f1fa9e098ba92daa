package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/redactyl/riskscan/internal/rules"
	"github.com/redactyl/riskscan/internal/types"
)

func TestWriteSARIFWithStats_IncludesProperties(t *testing.T) {
	findings := []types.Finding{{Path: "a/b.php", Line: 3, Rule: "System Command", Severity: types.SevHigh, Snippet: "system($x)", Fingerprint: "00000000deadbeef"}}
	stats := map[string]int{"filesScanned": 2, "filesSkipped": 1}
	var buf bytes.Buffer
	if err := WriteSARIFWithStats(&buf, findings, rules.Default(), "1.2.3", stats); err != nil {
		t.Fatalf("WriteSARIFWithStats: %v", err)
	}
	var doc struct {
		Runs []struct {
			Properties map[string]any `json:"properties"`
			Tool       struct {
				Driver struct {
					Version string `json:"version"`
					Rules   []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID              string            `json:"ruleId"`
				RuleIndex           int               `json:"ruleIndex"`
				Level               string            `json:"level"`
				PartialFingerprints map[string]string `json:"partialFingerprints"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v; body=%s", err, buf.String())
	}
	if len(doc.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(doc.Runs))
	}
	run := doc.Runs[0]
	ss, ok := run.Properties["scanStats"].(map[string]any)
	if !ok {
		t.Fatalf("expected scanStats in properties, got: %#v", run.Properties)
	}
	if ss["filesScanned"].(float64) != 2 || ss["filesSkipped"].(float64) != 1 {
		t.Fatalf("unexpected scanStats values: %#v", ss)
	}
	if run.Tool.Driver.Version != "1.2.3" || len(run.Tool.Driver.Rules) != 6 {
		t.Fatalf("unexpected driver: %+v", run.Tool.Driver)
	}
	res := run.Results[0]
	if res.RuleID != "System Command" || run.Tool.Driver.Rules[res.RuleIndex].ID != "System Command" {
		t.Fatalf("ruleIndex does not link to descriptor: %+v", res)
	}
	if res.Level != "error" {
		t.Fatalf("expected error level for HIGH, got %s", res.Level)
	}
	if res.PartialFingerprints["riskscan/v1"] != "00000000deadbeef" {
		t.Fatalf("missing fingerprint: %+v", res.PartialFingerprints)
	}
}

// Validate core SARIF structure for WriteSARIF()
func TestWriteSARIF_Golden(t *testing.T) {
	fs := []types.Finding{
		{Path: "a.js", Line: 10, Rule: "Dangerous Eval", Severity: types.SevHigh, Snippet: "eval(x)"},
		{Path: "b.php", Line: 5, Rule: "Hardcoded Password", Severity: types.SevMedium, Snippet: `password = "abcdef"`},
	}
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, fs, rules.Default(), "dev"); err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["version"] != "2.1.0" {
		t.Fatalf("expected SARIF 2.1.0, got %v", doc["version"])
	}
	runs, ok := doc["runs"].([]any)
	if !ok || len(runs) != 1 {
		t.Fatalf("expected 1 run")
	}
	run := runs[0].(map[string]any)
	if _, ok := run["properties"]; ok {
		t.Fatalf("expected no properties without stats")
	}
	results := run["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("expected 2 results")
	}
	res := results[1].(map[string]any)
	if res["level"] != "warning" {
		t.Fatalf("expected warning for MEDIUM, got %v", res["level"])
	}
	locs := res["locations"].([]any)
	phys := locs[0].(map[string]any)["physicalLocation"].(map[string]any)
	region := phys["region"].(map[string]any)
	if region["snippet"].(map[string]any)["text"] != `password = "abcdef"` {
		t.Fatalf("expected snippet present, got %#v", region)
	}
}

func TestWriteSARIF_NoFindingsHasEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, nil, rules.Default(), "dev"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Fatalf("expected empty results array; got %s", buf.String())
	}
}

func TestWriteJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected [], got %q", buf.String())
	}
	buf.Reset()
	if err := WriteJSON(&buf, sample()[:1]); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"severity": "HIGH"`) {
		t.Fatalf("expected severity name in JSON; got %s", buf.String())
	}
}
