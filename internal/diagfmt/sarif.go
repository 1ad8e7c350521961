package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifRootID  = "%SRCROOT%"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool                  sarifTool                `json:"tool"`
	Invocations           []sarifInvocation        `json:"invocations,omitempty"`
	OriginalURIBaseIDs    map[string]sarifArtifact `json:"originalUriBaseIds,omitempty"`
	Results               []sarifResult            `json:"results"`
	DefaultSourceLanguage string                   `json:"defaultSourceLanguage,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name,omitempty"`
	ShortDescription     *sarifMessage     `json:"shortDescription,omitempty"`
	FullDescription      *sarifMessage     `json:"fullDescription,omitempty"`
	HelpURI              string            `json:"helpUri,omitempty"`
	DefaultConfiguration *sarifRuleDefault `json:"defaultConfiguration,omitempty"`
}

type sarifRuleDefault struct {
	Level string `json:"level"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifArtifact struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine,omitempty"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifMessage         `json:"message,omitempty"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion  `json:"deletedRegion"`
	InsertedContent sarifMessage `json:"insertedContent"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifact      `json:"artifactLocation"`
	Replacements     []sarifReplacement `json:"replacements"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	RuleIndex        *int            `json:"ruleIndex,omitempty"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations,omitempty"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
	Fixes            []sarifFix      `json:"fixes,omitempty"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0).
// Rule findings use the cop name as ruleId, everything else the code ID.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           meta.ToolName,
			Version:        meta.ToolVersion,
			InformationURI: meta.InformationURI,
		}},
		Results:               make([]sarifResult, 0, bag.Len()),
		DefaultSourceLanguage: "ruby",
	}
	if fs != nil {
		base := filepath.ToSlash(fs.BaseDir())
		if base != "" && base[len(base)-1] != '/' {
			base += "/"
		}
		run.OriginalURIBaseIDs = map[string]sarifArtifact{sarifRootID: {URI: "file://" + base}}
	}

	ruleIndex := make(map[string]int, len(meta.Rules))
	for _, r := range meta.Rules {
		ruleIndex[r.ID] = len(run.Tool.Driver.Rules)
		rule := sarifRule{
			ID:                   r.ID,
			Name:                 r.ID,
			HelpURI:              r.HelpURI,
			DefaultConfiguration: &sarifRuleDefault{Level: sarifLevel(r.Level)},
		}
		if r.Title != "" {
			rule.ShortDescription = &sarifMessage{Text: r.Title}
		}
		if r.Description != "" {
			rule.FullDescription = &sarifMessage{Text: r.Description}
		}
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, rule)
	}

	hasErrors := false
	ctx := diag.FixBuildContext{FileSet: fs}
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			hasErrors = true
		}
		res := sarifResult{
			RuleID:  d.Code.ID(),
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Message},
		}
		if d.Rule != "" {
			res.RuleID = d.Rule
		}
		if idx, ok := ruleIndex[res.RuleID]; ok {
			res.RuleIndex = &idx
		}
		if loc, ok := sarifLocate(fs, d.Primary); ok {
			res.Locations = []sarifLocation{loc}
		}
		for _, n := range d.Notes {
			if loc, ok := sarifLocate(fs, n.Span); ok {
				loc.Message = &sarifMessage{Text: n.Msg}
				res.RelatedLocations = append(res.RelatedLocations, loc)
			}
		}
		for _, f := range d.Fixes {
			resolved, err := f.Resolve(ctx)
			if err != nil || len(resolved.Edits) == 0 {
				continue
			}
			res.Fixes = append(res.Fixes, sarifFixFrom(fs, resolved))
		}
		run.Results = append(run.Results, res)
	}

	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{
			Arguments:           meta.InvocationArgs,
			ExecutionSuccessful: !hasErrors,
		}}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sarifLog{Version: sarifVersion, Schema: sarifSchema, Runs: []sarifRun{run}})
}

func sarifArtifactFor(fs *source.FileSet, id source.FileID) sarifArtifact {
	f := fs.Get(id)
	if f.Flags&source.FileVirtual != 0 {
		return sarifArtifact{URI: filepath.ToSlash(f.Path)}
	}
	rel := f.FormatPath("relative", fs.BaseDir())
	if filepath.IsAbs(rel) {
		return sarifArtifact{URI: "file://" + filepath.ToSlash(rel)}
	}
	return sarifArtifact{URI: filepath.ToSlash(rel), URIBaseID: sarifRootID}
}

func sarifRegionFor(fs *source.FileSet, span source.Span) sarifRegion {
	start, end := fs.Resolve(span)
	return sarifRegion{
		StartLine:   start.Line,
		StartColumn: start.Col,
		EndLine:     end.Line,
		EndColumn:   end.Col,
		ByteOffset:  span.Start,
		ByteLength:  span.End - span.Start,
	}
}

func sarifLocate(fs *source.FileSet, span source.Span) (sarifLocation, bool) {
	if fs == nil || int(span.File) >= fs.Len() {
		return sarifLocation{}, false
	}
	return sarifLocation{PhysicalLocation: sarifPhysicalLocation{
		ArtifactLocation: sarifArtifactFor(fs, span.File),
		Region:           sarifRegionFor(fs, span),
	}}, true
}

func sarifFixFrom(fs *source.FileSet, f diag.Fix) sarifFix {
	out := sarifFix{Description: sarifMessage{Text: f.Title}}
	byFile := make(map[source.FileID]int)
	for _, e := range f.Edits {
		if int(e.Span.File) >= fs.Len() {
			continue
		}
		i, ok := byFile[e.Span.File]
		if !ok {
			i = len(out.ArtifactChanges)
			byFile[e.Span.File] = i
			out.ArtifactChanges = append(out.ArtifactChanges, sarifArtifactChange{ArtifactLocation: sarifArtifactFor(fs, e.Span.File)})
		}
		out.ArtifactChanges[i].Replacements = append(out.ArtifactChanges[i].Replacements, sarifReplacement{
			DeletedRegion:   sarifRegionFor(fs, e.Span),
			InsertedContent: sarifMessage{Text: e.NewText},
		})
	}
	return out
}
