package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"rbsec/internal/cop"
	"rbsec/internal/diag"
	"rbsec/internal/diagfmt"
	"rbsec/internal/source"
	"rbsec/internal/version"
)

const informationURI = "https://docs.rubocop.org/rubocop/cops_security.html"

// renderOptions are the display flags shared by lint and fix.
type renderOptions struct {
	format    string
	color     bool
	fullPath  bool
	withNotes bool
	suggest   bool
	preview   bool
	args      []string
	// files are the inspected files for the rubocop format
	files []source.FileID
}

func (o renderOptions) pathMode() diagfmt.PathMode {
	if o.fullPath {
		return diagfmt.PathModeAbsolute
	}
	return diagfmt.PathModeAuto
}

// renderDiagnostics writes bag in the chosen format.
func renderDiagnostics(out io.Writer, bag *diag.Bag, fs *source.FileSet, reg *cop.Registry, settings cop.Settings, opts renderOptions) error {
	showFixes := opts.suggest || opts.preview
	switch opts.format {
	case "pretty":
		diagfmt.Pretty(out, bag, fs, diagfmt.PrettyOpts{
			Color:       opts.color,
			Context:     1,
			PathMode:    opts.pathMode(),
			ShowNotes:   opts.withNotes,
			ShowFixes:   showFixes,
			ShowPreview: opts.preview,
		})
		if bag.Len() > 0 {
			_, err := fmt.Fprintln(out)
			return err
		}
		return nil
	case "short":
		return diagfmt.Short(out, bag, fs)
	case "json":
		err := diagfmt.JSON(out, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode(),
			IncludeNotes:     opts.withNotes,
			IncludeFixes:     showFixes,
			IncludePreviews:  opts.preview,
		})
		if err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
		return nil
	case "sarif":
		return diagfmt.Sarif(out, bag, fs, sarifMeta(reg, settings, opts.args))
	case "rubocop":
		return diagfmt.RuboCop(out, bag, fs, diagfmt.RuboCopMeta{
			Version:  version.Version,
			PathMode: opts.pathMode(),
			Files:    opts.files,
		})
	}
	return fmt.Errorf("unknown format: %s", opts.format)
}

func sarifMeta(reg *cop.Registry, settings cop.Settings, args []string) diagfmt.SarifRunMeta {
	meta := diagfmt.SarifRunMeta{
		ToolName:       "rbsec",
		ToolVersion:    version.Version,
		InformationURI: informationURI,
		InvocationArgs: args,
	}
	for _, c := range reg.Cops() {
		rule := diagfmt.SarifRule{
			ID:      c.Name(),
			Title:   c.Name(),
			Level:   settings[c.Name()].Severity,
			HelpURI: copHelpURI(c.Name()),
		}
		if d, ok := c.(cop.Documented); ok {
			doc := d.Doc()
			rule.Title = doc.Title
			rule.Description = doc.Description
		}
		meta.Rules = append(meta.Rules, rule)
	}
	return meta
}

// copHelpURI points at the RuboCop documentation anchor of a cop,
// e.g. Security/Open -> cops_security.html#securityopen.
func copHelpURI(name string) string {
	dept, _, ok := strings.Cut(name, "/")
	if !ok {
		return ""
	}
	anchor := strings.ToLower(strings.ReplaceAll(name, "/", ""))
	return fmt.Sprintf("https://docs.rubocop.org/rubocop/cops_%s.html#%s", strings.ToLower(dept), anchor)
}

var (
	summaryOK  = color.New(color.FgGreen)
	summaryBad = color.New(color.FgRed, color.Bold)
)

// summary prints the rubocop-style closing line of pretty output.
func summary(out io.Writer, files, offenses int, colored bool) {
	noun := "offenses"
	if offenses == 1 {
		noun = "offense"
	}
	fileNoun := "files"
	if files == 1 {
		fileNoun = "file"
	}
	count := fmt.Sprintf("%d %s", offenses, noun)
	if colored {
		if offenses == 0 {
			count = summaryOK.Sprint(count)
		} else {
			count = summaryBad.Sprint(count)
		}
	}
	fmt.Fprintf(out, "%d %s inspected, %s detected\n", files, fileNoun, count)
}
