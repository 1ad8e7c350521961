package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rbsec/internal/cop"
)

type copInfo struct {
	Name        string         `json:"name"`
	Enabled     bool           `json:"enabled"`
	Severity    string         `json:"severity"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Code        string         `json:"code,omitempty"`
	HelpURI     string         `json:"help_uri,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
}

func newCopsCmd(g *globals) *cobra.Command {
	var formatFlag string
	cmd := &cobra.Command{
		Use:   "cops [path]",
		Short: "List the available cops and their effective configuration",
		Long: `List every registered cop with the settings that apply to [path]
(default: the current directory) after reading its config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag, "pretty", "json")
			if err != nil {
				return err
			}
			target := "."
			if len(args) > 0 {
				target = args[0]
			}
			_, reg, settings, err := g.settingsFor(cmd, target)
			if err != nil {
				return err
			}
			infos := collectCops(reg, settings)
			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			renderCopsPretty(cmd.OutOrStdout(), infos)
			return nil
		},
	}
	cmd.Flags().StringVar(&formatFlag, "format", "pretty", "output format (pretty|json)")
	return cmd
}

func collectCops(reg *cop.Registry, settings cop.Settings) []copInfo {
	infos := make([]copInfo, 0, len(reg.Names()))
	for _, name := range reg.Names() {
		cfg := settings[name]
		info := copInfo{
			Name:     name,
			Enabled:  cfg.Enabled,
			Severity: cfg.Severity.Label(),
			HelpURI:  copHelpURI(name),
			Options:  cfg.Options,
		}
		if c, ok := reg.Lookup(name); ok {
			if d, ok := c.(cop.Documented); ok {
				doc := d.Doc()
				info.Title = doc.Title
				info.Description = doc.Description
				info.Code = doc.Code.ID()
			}
		}
		infos = append(infos, info)
	}
	return infos
}

var (
	copNameColor = color.New(color.FgCyan, color.Bold)
	copOnColor   = color.New(color.FgGreen)
	copOffColor  = color.New(color.FgHiBlack)
	copOptionKey = color.New(color.FgYellow)
)

func renderCopsPretty(out io.Writer, infos []copInfo) {
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(out)
		}
		state := copOnColor.Sprint("enabled")
		if !info.Enabled {
			state = copOffColor.Sprint("disabled")
		}
		fmt.Fprintf(out, "%s  %s  %s", copNameColor.Sprint(info.Name), state, info.Severity)
		if info.Code != "" {
			fmt.Fprintf(out, "  %s", info.Code)
		}
		fmt.Fprintln(out)
		if info.Title != "" {
			fmt.Fprintf(out, "  %s\n", info.Title)
		}
		if info.Description != "" {
			fmt.Fprintf(out, "  %s\n", info.Description)
		}
		keys := make([]string, 0, len(info.Options))
		for k := range info.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s = %v\n", copOptionKey.Sprint(k), info.Options[k])
		}
		if info.HelpURI != "" {
			fmt.Fprintf(out, "  see %s\n", info.HelpURI)
		}
	}
}
