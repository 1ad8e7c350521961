package diagfmt

import (
	"encoding/json"
	"io"
	"runtime"
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

// syntaxCop is the cop name RuboCop reports parse failures under.
const syntaxCop = "Lint/Syntax"

type rubocopReport struct {
	Metadata rubocopMetadata `json:"metadata"`
	Files    []rubocopFile   `json:"files"`
	Summary  rubocopSummary  `json:"summary"`
}

type rubocopMetadata struct {
	RuboCopVersion string `json:"rubocop_version"`
	RubyEngine     string `json:"ruby_engine"`
	RubyPlatform   string `json:"ruby_platform"`
}

type rubocopFile struct {
	Path     string           `json:"path"`
	Offenses []rubocopOffense `json:"offenses"`
}

type rubocopOffense struct {
	Severity    string          `json:"severity"`
	Message     string          `json:"message"`
	CopName     string          `json:"cop_name"`
	Corrected   bool            `json:"corrected"`
	Correctable bool            `json:"correctable"`
	Location    rubocopLocation `json:"location"`
}

// rubocopLocation повторяет Parser::Source::Range: last_column включительно.
type rubocopLocation struct {
	StartLine   uint32 `json:"start_line"`
	StartColumn uint32 `json:"start_column"`
	LastLine    uint32 `json:"last_line"`
	LastColumn  uint32 `json:"last_column"`
	Length      uint32 `json:"length"`
	Line        uint32 `json:"line"`
	Column      uint32 `json:"column"`
}

type rubocopSummary struct {
	OffenseCount       int `json:"offense_count"`
	TargetFileCount    int `json:"target_file_count"`
	InspectedFileCount int `json:"inspected_file_count"`
}

// RuboCop writes bag in the layout of `rubocop --format json`, so tools
// that consume RuboCop reports can read rbsec output unchanged. Every
// inspected file is listed, clean ones with an empty offense list.
func RuboCop(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta RuboCopMeta) error {
	files := meta.Files
	if files == nil {
		files = make([]source.FileID, 0, fs.Len())
		for i := range fs.Len() {
			id, err := safecast.Conv[uint32](i)
			if err != nil {
				return err
			}
			files = append(files, source.FileID(id))
		}
	}

	byFile := make(map[source.FileID][]*diag.Diagnostic)
	items := bag.Items()
	for i := range items {
		d := &items[i]
		if int(d.Primary.File) >= fs.Len() {
			continue
		}
		byFile[d.Primary.File] = append(byFile[d.Primary.File], d)
	}

	report := rubocopReport{
		Metadata: rubocopMetadata{
			RuboCopVersion: meta.Version,
			RubyEngine:     "rbsec",
			RubyPlatform:   runtime.GOOS + "-" + runtime.GOARCH,
		},
		Files: make([]rubocopFile, 0, len(files)),
	}
	for _, id := range files {
		if int(id) >= fs.Len() {
			continue
		}
		f := fs.Get(id)
		diags := byFile[id]
		sort.SliceStable(diags, func(i, j int) bool {
			if diags[i].Primary.Start != diags[j].Primary.Start {
				return diags[i].Primary.Start < diags[j].Primary.Start
			}
			return diags[i].Code < diags[j].Code
		})
		entry := rubocopFile{
			Path:     f.FormatPath(meta.PathMode.mode(), fs.BaseDir()),
			Offenses: make([]rubocopOffense, 0, len(diags)),
		}
		for _, d := range diags {
			entry.Offenses = append(entry.Offenses, rubocopOffenseFor(fs, f, d))
		}
		report.Summary.OffenseCount += len(entry.Offenses)
		report.Files = append(report.Files, entry)
	}
	report.Summary.TargetFileCount = len(report.Files)
	report.Summary.InspectedFileCount = len(report.Files)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func rubocopOffenseFor(fs *source.FileSet, f *source.File, d *diag.Diagnostic) rubocopOffense {
	copName := d.Rule
	severity := d.Severity.Label()
	if copName == "" {
		copName = syntaxCop
		if d.Severity == diag.SevError {
			severity = "fatal"
		}
	}
	start, end := fs.Resolve(d.Primary)
	length := utf8.RuneCountInString(f.Text(d.Primary))
	loc := rubocopLocation{
		StartLine:   start.Line,
		StartColumn: start.Col,
		LastLine:    end.Line,
		LastColumn:  end.Col,
		Line:        start.Line,
		Column:      start.Col,
	}
	if n, err := safecast.Conv[uint32](length); err == nil {
		loc.Length = n
	}
	if length > 0 && end.Col > 1 {
		loc.LastColumn = end.Col - 1
	}
	return rubocopOffense{
		Severity:    severity,
		Message:     copName + ": " + d.Message,
		CopName:     copName,
		Correctable: len(d.Fixes) > 0,
		Location:    loc,
	}
}
