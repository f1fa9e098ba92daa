package report

import (
	"encoding/json"
	"io"

	"github.com/redactyl/riskscan/internal/rules"
	"github.com/redactyl/riskscan/internal/types"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	ShortDescription     sarifMessage `json:"shortDescription"`
	DefaultConfiguration sarifConfig  `json:"defaultConfiguration"`
	Properties           sarifProps   `json:"properties"`
}

type sarifConfig struct {
	Level string `json:"level"`
}

type sarifProps struct {
	Severity string `json:"severity"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int          `json:"startLine"`
	Snippet   sarifMessage `json:"snippet"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevCritical, types.SevHigh:
		return "error"
	case types.SevMedium:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer. Every
// rule in set is listed as a descriptor, whether or not it matched.
func WriteSARIF(w io.Writer, findings []types.Finding, set rules.Set, version string) error {
	return writeSARIF(w, findings, set, version, nil)
}

// WriteSARIFWithStats is WriteSARIF plus scan counters stored under the
// run's properties.scanStats.
func WriteSARIFWithStats(w io.Writer, findings []types.Finding, set rules.Set, version string, stats map[string]int) error {
	return writeSARIF(w, findings, set, version, stats)
}

func writeSARIF(w io.Writer, findings []types.Finding, set rules.Set, version string, stats map[string]int) error {
	driver := sarifDriver{Name: "riskscan", Version: version}
	index := map[string]int{}
	for i, r := range set.Rules() {
		index[r.Name] = i
		driver.Rules = append(driver.Rules, sarifRule{
			ID:                   r.Name,
			Name:                 r.Name,
			ShortDescription:     sarifMessage{Text: r.Name + ": " + r.Pattern.String()},
			DefaultConfiguration: sarifConfig{Level: sevToLevel(r.Severity)},
			Properties:           sarifProps{Severity: r.Severity.String()},
		})
	}
	run := sarifRun{Tool: sarifTool{Driver: driver}, Results: []sarifResult{}}
	if len(stats) > 0 {
		run.Properties = map[string]any{"scanStats": stats}
	}
	for _, f := range findings {
		idx, ok := index[f.Rule]
		if !ok {
			idx = -1
		}
		res := sarifResult{
			RuleID:    f.Rule,
			RuleIndex: idx,
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: f.Rule + " detected"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Path},
					Region:           sarifRegion{StartLine: f.Line, Snippet: sarifMessage{Text: f.Snippet}},
				},
			}},
		}
		if f.Fingerprint != "" {
			res.PartialFingerprints = map[string]string{"riskscan/v1": f.Fingerprint}
		}
		run.Results = append(run.Results, res)
	}
	doc := sarif{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteJSON writes findings as an indented JSON array. An empty collection
// is written as [] rather than null.
func WriteJSON(w io.Writer, findings []types.Finding) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
