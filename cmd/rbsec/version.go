package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"rbsec/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

type versionFlags struct {
	format   string
	showHash bool
	showDate bool
	showFull bool
}

func newVersionCmd() *cobra.Command {
	f := &versionFlags{}
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show rbsec build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(f.format, "pretty", "json")
			if err != nil {
				return err
			}
			showHash := f.showHash || f.showFull
			showDate := f.showDate || f.showFull
			if format == "json" {
				return renderVersionJSON(cmd.OutOrStdout(), showHash, showDate)
			}
			renderVersionPretty(cmd.OutOrStdout(), showHash, showDate)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&f.showHash, "hash", false, "include git commit hash")
	fl.BoolVar(&f.showDate, "date", false, "include build timestamp")
	fl.BoolVar(&f.showFull, "full", false, "show every recorded bit of build metadata")
	fl.StringVar(&f.format, "format", "pretty", "output format (pretty|json)")
	return cmd
}

func renderVersionPretty(out io.Writer, showHash, showDate bool) {
	fmt.Fprintf(out, "rbsec %s (%s)\n", version.Colored(), runtime.Version())
	if showHash {
		fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(version.GitCommit))
	}
	if showDate {
		fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(version.BuildDate))
	}
}

func renderVersionJSON(out io.Writer, showHash, showDate bool) error {
	payload := versionPayload{
		Tool:      "rbsec",
		Version:   strings.TrimSpace(version.Version),
		GoVersion: runtime.Version(),
	}
	if showHash {
		payload.GitCommit = valueOrUnknown(version.GitCommit)
	}
	if showDate {
		payload.BuildDate = valueOrUnknown(version.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
