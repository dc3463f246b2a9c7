package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"pycycles/internal/cycles"
	"pycycles/internal/graph"
	"pycycles/internal/version"
)

// SARIF v2.1.0 – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDCycle      = "PYC001"
	ruleIDIncomplete = "PYC002"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from a cycle report. Each
// cycle becomes one result located at the import statement that opens it.
// File URIs are made relative to projectRoot so reports are safe to share.
func GenerateSARIF(projectRoot string, g *graph.Graph, report *cycles.Report) ([]byte, error) {
	results := make([]sarifResult, 0, len(report.Cycles))

	for _, cycle := range report.Cycles {
		parts := make([]string, len(cycle))
		for i, m := range cycle {
			parts[i] = string(m)
		}
		result := sarifResult{
			RuleID:  ruleIDCycle,
			Level:   "error",
			Message: sarifMessage{Text: fmt.Sprintf("Import cycle: %s", strings.Join(parts, " -> "))},
		}
		if edge, ok := g.EdgeBetween(cycle[0], cycle[1%len(cycle)]); ok && edge.File != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(projectRoot, edge.File),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if edge.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: edge.Line}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	if !report.Complete {
		results = append(results, sarifResult{
			RuleID:  ruleIDIncomplete,
			Level:   "note",
			Message: sarifMessage{Text: "Cycle enumeration was interrupted; the cycle list may be incomplete."},
		})
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "pycycles",
						Version: version.Version,
						Rules:   buildSARIFRules(report),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(doc, "", "  ")
}

func buildSARIFRules(report *cycles.Report) []sarifRule {
	rules := make([]sarifRule, 0, 2)
	if len(report.Cycles) > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDCycle,
			Name:             "ImportCycle",
			ShortDescription: sarifMessage{Text: "Circular import dependency detected between Python modules."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}
	if !report.Complete {
		rules = append(rules, sarifRule{
			ID:               ruleIDIncomplete,
			Name:             "AnalysisIncomplete",
			ShortDescription: sarifMessage{Text: "Cycle enumeration did not run to completion."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "note"},
		})
	}
	return rules
}

// relativeURI converts an absolute path to a forward-slash URI anchored at
// projectRoot. Already-relative paths pass through with slashes normalized.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		if rel, err := filepath.Rel(projectRoot, filePath); err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
