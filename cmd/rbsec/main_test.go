package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbsec/internal/config"
	"rbsec/internal/diagfmt"
)

func writeRuby(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestLintExitCodes(t *testing.T) {
	dir := t.TempDir()
	bad := writeRuby(t, dir, "bad.rb", "open(cmd)\n")
	good := writeRuby(t, dir, "good.rb", "File.open(\"a.txt\")\n")

	stdout, stderr, code := runCLI(t, "lint", "--color", "off", "--format", "short", bad)
	assert.Equal(t, exitOffenses, code, stderr)
	assert.Contains(t, stdout, "bad.rb:1:1 Security/Open:")

	stdout, _, code = runCLI(t, "lint", "--color", "off", "--format", "short", good)
	assert.Equal(t, exitOK, code)
	assert.Empty(t, stdout)

	_, stderr, code = runCLI(t, "lint", filepath.Join(dir, "missing.rb"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "failed to stat path")
}

func TestLintFailLevel(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "open(cmd)\n")

	_, _, code := runCLI(t, "lint", "--color", "off", "--fail-level", "error", path)
	assert.Equal(t, exitOK, code, "warnings stay below --fail-level error")

	_, stderr, code := runCLI(t, "lint", "--fail-level", "loud", path)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "invalid --fail-level")
}

func TestLintPrettySummary(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "x = 1\nopen(x)\n")
	stdout, _, code := runCLI(t, "lint", "--color", "off", path)
	assert.Equal(t, exitOffenses, code)
	assert.Contains(t, stdout, "Security/Open")
	assert.Contains(t, stdout, "open(x)")
	assert.Contains(t, stdout, "1 file inspected, 1 offense detected")
}

func TestLintJSON(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "open(a)\nopen(\"b.txt\")\nKernel.open(c)\n")
	stdout, _, code := runCLI(t, "lint", "--format", "json", "--suggest", "--disallow-all", path)
	assert.Equal(t, exitOffenses, code)

	var out diagfmt.DiagnosticsOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out), stdout)
	require.Equal(t, 3, out.Count)
	for _, d := range out.Diagnostics {
		assert.Equal(t, "COP4001", d.Code)
		assert.Equal(t, "Security/Open", d.Rule)
		assert.Equal(t, "WARNING", d.Severity)
	}
	assert.Empty(t, out.Diagnostics[0].Fixes, "dynamic argument has no fix")
	require.Len(t, out.Diagnostics[1].Fixes, 1)
	assert.Equal(t, "Security/Open/file-open@8", out.Diagnostics[1].Fixes[0].ID)
	assert.Equal(t, uint32(8), out.Diagnostics[2].Location.StartCol)
}

func TestLintSarif(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "open(a)\n")
	stdout, _, code := runCLI(t, "lint", "--format", "sarif", path)
	assert.Equal(t, exitOffenses, code)

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Results []struct {
				RuleID string `json:"ruleId"`
				Level  string `json:"level"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &log), stdout)
	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)
	require.Len(t, log.Runs[0].Results, 1)
	assert.Equal(t, "Security/Open", log.Runs[0].Results[0].RuleID)
	assert.Equal(t, "warning", log.Runs[0].Results[0].Level)
}

func TestLintRuboCopFormat(t *testing.T) {
	dir := t.TempDir()
	writeRuby(t, dir, "a.rb", "open(a)\n")
	writeRuby(t, dir, "b.rb", "puts 1\n")

	stdout, _, code := runCLI(t, "lint", "--format", "rubocop", "--ui", "off", dir)
	assert.Equal(t, exitOffenses, code)

	var report struct {
		Files []struct {
			Path     string `json:"path"`
			Offenses []struct {
				CopName  string `json:"cop_name"`
				Severity string `json:"severity"`
			} `json:"offenses"`
		} `json:"files"`
		Summary struct {
			OffenseCount       int `json:"offense_count"`
			InspectedFileCount int `json:"inspected_file_count"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report), stdout)
	assert.Equal(t, 1, report.Summary.OffenseCount)
	assert.Equal(t, 2, report.Summary.InspectedFileCount)
	require.Len(t, report.Files, 2)
	require.Len(t, report.Files[0].Offenses, 1)
	assert.Equal(t, "Security/Open", report.Files[0].Offenses[0].CopName)
	assert.Equal(t, "warning", report.Files[0].Offenses[0].Severity)
	assert.Empty(t, report.Files[1].Offenses)
}

func TestLintBadFlags(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "")
	tests := map[string][]string{
		"format": {"lint", "--format", "xml", path},
		"stages": {"lint", "--stages", "codegen", path},
		"ui":     {"lint", "--ui", "sometimes", path},
		"color":  {"lint", "--color", "rainbow", path},
		"args":   {"lint"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, stderr, code := runCLI(t, args...)
			assert.Equal(t, exitFailure, code)
			assert.True(t, strings.HasPrefix(stderr, "rbsec: "), stderr)
		})
	}
}

func TestLintDirWithConfig(t *testing.T) {
	dir := t.TempDir()
	writeRuby(t, dir, config.NativeName, "[AllCops]\nExclude = [\"vendor/**\"]\n")
	writeRuby(t, dir, "app/a.rb", "open(a)\n")
	writeRuby(t, dir, "app/b.rb", "puts 1\n")
	writeRuby(t, dir, "Rakefile", "open(\"| rake\")\n")
	writeRuby(t, dir, "vendor/gem.rb", "open(v)\n")
	writeRuby(t, dir, "README.md", "open(x)\n")

	stdout, stderr, code := runCLI(t, "lint", "--format", "short", "--ui", "off", "--jobs", "2", dir)
	assert.Equal(t, exitOffenses, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2, stdout)
	assert.Contains(t, lines[0], "Rakefile:1:1")
	assert.Contains(t, lines[1], "app/a.rb:1:1")
	assert.NotContains(t, stdout, "vendor")
}

func TestLintDisabledByConfig(t *testing.T) {
	dir := t.TempDir()
	writeRuby(t, dir, config.RuboCopName, "Security/Open:\n  Enabled: false\n")
	path := writeRuby(t, dir, "a.rb", "open(a)\n")

	stdout, stderr, code := runCLI(t, "lint", "--format", "short", path)
	assert.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)
}

func TestLintExplicitConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeRuby(t, dir, "strict.toml", "[cops.\"Security/Open\"]\nDisallowAll = true\nSeverity = \"error\"\n")
	path := writeRuby(t, dir, "a.rb", "open(\"a.txt\")\n")

	stdout, _, code := runCLI(t, "lint", "--format", "short", "--config", cfgPath, path)
	assert.Equal(t, exitOffenses, code)
	assert.True(t, strings.HasPrefix(stdout, "error COP4001 "), stdout)

	_, stderr, code := runCLI(t, "lint", "--config", filepath.Join(dir, "nope.toml"), path)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "config:")
}

func TestLintCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	writeRuby(t, dir, "a.rb", "open(a)\n")

	first, _, code := runCLI(t, "lint", "--format", "short", "--cache", "--ui", "off", dir)
	assert.Equal(t, exitOffenses, code)
	second, stderr, code := runCLI(t, "lint", "--format", "short", "--cache", "--ui", "off", dir)
	assert.Equal(t, exitOffenses, code)
	assert.Equal(t, first, second)
	assert.Empty(t, stderr)

	stdout, _, code := runCLI(t, "clean")
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "removed "), stdout)

	stdout, _, code = runCLI(t, "clean")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "cache directory not found\n", stdout)
}

func TestFixUnsafeRewritesFile(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "open(\"a.txt\")\nKernel.open(\"b.txt\")\nopen(c)\n")

	stdout, stderr, code := runCLI(t, "fix", "--disallow-all", "--all", path)
	assert.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "No applicable fixes found.")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "open(\"a.txt\")\nKernel.open(\"b.txt\")\nopen(c)\n", string(data))

	stdout, stderr, code = runCLI(t, "fix", "--disallow-all", "--all", "--unsafe", "--dry-run", path)
	assert.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Would apply 2 fix(es):")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "open(\"a.txt\")\nKernel.open(\"b.txt\")\nopen(c)\n", string(data))

	stdout, stderr, code = runCLI(t, "fix", "--disallow-all", "--all", "--unsafe", path)
	assert.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Applied 2 fix(es):")
	assert.Contains(t, stdout, "Updated files:")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "File.open(\"a.txt\")\nFile.open(\"b.txt\")\nopen(c)\n", string(data))
}

func TestFixByID(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "open(\"a.txt\")\nopen(\"b.txt\")\n")

	stdout, stderr, code := runCLI(t, "fix", "--disallow-all", "--id", "Security/Open/file-open@14", path)
	assert.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Applied 1 fix(es):")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "open(\"a.txt\")\nFile.open(\"b.txt\")\n", string(data))
}

func TestFixFlagValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeRuby(t, dir, "a.rb", "open(a)\n")
	tests := map[string][]string{
		"id with all":  {"fix", "--id", "x", "--all", path},
		"all and once": {"fix", "--all", "--once", path},
		"id on dir":    {"fix", "--id", "x", dir},
		"unknown rule": {"fix", "--rule", "Security/Eval", path},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, stderr, code := runCLI(t, args...)
			assert.Equal(t, exitFailure, code)
			assert.NotEmpty(t, stderr)
		})
	}
}

func TestCopsJSON(t *testing.T) {
	dir := t.TempDir()
	writeRuby(t, dir, config.NativeName, "[cops.\"Security/Open\"]\nAllowSafeConcatenation = true\n")

	stdout, stderr, code := runCLI(t, "cops", "--format", "json", dir)
	require.Equal(t, exitOK, code, stderr)
	var infos []copInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "Security/Open", infos[0].Name)
	assert.True(t, infos[0].Enabled)
	assert.Equal(t, "COP4001", infos[0].Code)
	assert.Equal(t, true, infos[0].Options["AllowSafeConcatenation"])
	assert.Equal(t, false, infos[0].Options["DisallowAll"])

	stdout, _, code = runCLI(t, "cops", "--color", "off", dir)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Security/Open  enabled  warning  COP4001")
	assert.Contains(t, stdout, "AllowSafeConcatenation = true")
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	stdout, stderr, code := runCLI(t, "init", dir)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "created "+filepath.Join(dir, config.NativeName)+"\n", stdout)

	_, stderr, code = runCLI(t, "init", dir)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "--force")

	_, _, code = runCLI(t, "init", "--force", dir)
	assert.Equal(t, exitOK, code)

	stdout, _, code = runCLI(t, "cops", "--format", "json", dir)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Security/Open")
}

func TestTokenizeAndParse(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "open(\"| ls\")\n")

	stdout, stderr, code := runCLI(t, "tokenize", "--format", "json", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "\"kind\"")

	stdout, stderr, code = runCLI(t, "parse", "--color", "off", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "open")

	broken := writeRuby(t, t.TempDir(), "b.rb", "def foo(\n")
	_, stderr, code = runCLI(t, "parse", "--color", "off", broken)
	assert.Equal(t, exitOffenses, code)
	assert.NotEmpty(t, stderr)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, code := runCLI(t, "version", "--color", "off")
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "rbsec 0."), stdout)

	stdout, _, code = runCLI(t, "version", "--format", "json", "--full")
	require.Equal(t, exitOK, code)
	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, "rbsec", payload.Tool)
	assert.Equal(t, "unknown", payload.GitCommit)
	assert.NotEmpty(t, payload.GoVersion)
}

func TestTraceAndProfileFlags(t *testing.T) {
	dir := t.TempDir()
	path := writeRuby(t, dir, "a.rb", "open(a)\n")
	cpu := filepath.Join(dir, "cpu.out")
	mem := filepath.Join(dir, "mem.out")

	stdout, stderr, code := runCLI(t, "lint", "--format", "short",
		"--trace", "-", "--trace-level", "phase",
		"--cpu-profile", cpu, "--mem-profile", mem,
		path)
	assert.Equal(t, exitOffenses, code)
	assert.Contains(t, stdout, "Security/Open")
	assert.Contains(t, stderr, "lint")
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)

	_, stderr, code = runCLI(t, "lint", "--trace-level", "chatty", path)
	assert.Equal(t, exitFailure, code)
	assert.NotEmpty(t, stderr)
}

func TestTimingsFlag(t *testing.T) {
	path := writeRuby(t, t.TempDir(), "a.rb", "open(a)\n")
	_, stderr, code := runCLI(t, "lint", "--format", "short", "--timings", path)
	assert.Equal(t, exitOffenses, code)
	assert.Contains(t, stderr, "timings:")
	assert.Contains(t, stderr, "parse")
}
