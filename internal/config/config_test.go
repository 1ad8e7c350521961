package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbsec/internal/cop"
	"rbsec/internal/cop/security"
	"rbsec/internal/diag"
)

func registry() *cop.Registry {
	reg := cop.NewRegistry()
	security.Register(reg)
	return reg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadNative(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, NativeName)
	writeFile(t, path, `
[AllCops]
Exclude = ["vendor/**", "db/schema.rb"]

[cops."Security/Open"]
Enabled = true
Severity = "error"
DisallowAll = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FormatNative, cfg.Format)
	assert.Equal(t, []string{"vendor/**", "db/schema.rb"}, cfg.Exclude)
	assert.Empty(t, cfg.Warnings)

	settings, err := cfg.Settings(registry())
	require.NoError(t, err)
	open := settings[security.OpenName]
	assert.True(t, open.Enabled)
	assert.Equal(t, diag.SevError, open.Severity)
	assert.True(t, open.Bool(security.OptDisallowAll, false))
	assert.False(t, open.Bool(security.OptAllowSafeConcatenation, true))
}

func TestLoadNativeUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, NativeName)
	writeFile(t, path, `
[AllCops]
Exclude = []
Include = ["**/*.rb"]

[output]
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(cfg.Warnings), 2)
	var msgs []string
	for _, w := range cfg.Warnings {
		assert.Equal(t, diag.CfgUnknownKey, w.Code)
		msgs = append(msgs, w.Message)
	}
	assert.Contains(t, msgs, `unknown key "AllCops.Include"`)
	assert.Contains(t, msgs, `unknown key "output.format"`)
}

func TestLoadNativeUnknownCop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, NativeName)
	writeFile(t, path, "[cops.\"Security/Eval\"]\nEnabled = false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.Settings(registry())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCop))

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, diag.CfgUnknownCop, cfgErr.Code)
}

func TestLoadNativeBadValues(t *testing.T) {
	tests := map[string]string{
		"enabled":  "[cops.\"Security/Open\"]\nEnabled = \"yes\"\n",
		"severity": "[cops.\"Security/Open\"]\nSeverity = \"loud\"\n",
		"syntax":   "[cops.\"Security/Open\"\nEnabled = true\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), NativeName)
			writeFile(t, path, content)
			_, err := Load(path)
			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}

	path := filepath.Join(t.TempDir(), NativeName)
	writeFile(t, path, "[cops.\"Security/Open\"]\nBogus = 1\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.Settings(registry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bogus")
}

func TestLoadRuboCop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RuboCopName)
	writeFile(t, path, `
inherit_from: .rubocop_todo.yml
require: rubocop-rails

AllCops:
  TargetRubyVersion: 3.2
  Exclude:
    - 'vendor/**/*'
    - 'bin/*'

Security/Open:
  Enabled: true
  DisallowAll: true
  Exclude:
    - 'spec/**/*'

Security/Eval:
  Enabled: false

Style/StringLiterals:
  EnforcedStyle: double_quotes
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FormatRuboCop, cfg.Format)
	assert.Equal(t, []string{"vendor/**/*", "bin/*"}, cfg.Exclude)
	assert.Equal(t, []string{"Security/Eval", "Security/Open", "Style/StringLiterals"}, cfg.CopNames())

	settings, err := cfg.Settings(registry())
	require.NoError(t, err)
	assert.True(t, settings[security.OpenName].Bool(security.OptDisallowAll, false))
	assert.NotContains(t, settings[security.OpenName].Options, "Exclude")
}

func TestLoadRuboCopPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), RuboCopName)
	writeFile(t, path, "Security/Open:\n  Enabled: pending\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	settings, err := cfg.Settings(registry())
	require.NoError(t, err)
	assert.False(t, settings.Enabled(security.OpenName))
}

func TestLoadRuboCopBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), RuboCopName)
	writeFile(t, path, "Security/Open: [unclosed\n")
	_, err := Load(path)
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, diag.CfgParseError, cfgErr.Code)
}

func TestFindPrefersNativeAndWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, RuboCopName), "AllCops: {}\n")
	writeFile(t, filepath.Join(root, NativeName), "")
	nested := filepath.Join(root, "app", "models")
	writeFile(t, filepath.Join(nested, "user.rb"), "class User; end\n")

	path, ok, err := Find(filepath.Join(nested, "user.rb"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, NativeName), path)

	cfg, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, FormatNative, cfg.Format)
	assert.Equal(t, root, cfg.Root)
}

func TestDiscoverDefaults(t *testing.T) {
	dir := t.TempDir()
	// a config above the temp dir would leak into the test
	if _, ok, _ := Find(filepath.Dir(dir)); ok {
		t.Skip("config file found above the temp dir")
	}
	file := filepath.Join(dir, "a.rb")
	writeFile(t, file, "")
	cfg, err := Discover(file)
	require.NoError(t, err)
	assert.Equal(t, FormatNone, cfg.Format)
	assert.Equal(t, dir, cfg.Root)

	settings, err := cfg.Settings(registry())
	require.NoError(t, err)
	assert.True(t, settings.Enabled(security.OpenName))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"vendor/**", "vendor/bundle/gems/x.rb", true},
		{"vendor/**", "vendor", true},
		{"vendor/**/*", "vendor/x.rb", true},
		{"vendor/**/*", "app/vendor.rb", false},
		{"**/*.rb", "a.rb", true},
		{"**/*.rb", "app/models/user.rb", true},
		{"**/*.rb", "Gemfile", false},
		{"db/schema.rb", "db/schema.rb", true},
		{"db/schema.rb", "db/schema.rbx", false},
		{"./bin/*", "bin/setup", true},
		{"bin/*", "bin/sub/setup", false},
		{"spec/**/fixtures/*.rb", "spec/a/b/fixtures/x.rb", true},
		{"spec/**/fixtures/*.rb", "spec/fixtures/x.rb", true},
		{"[", "[", false},
		{"", "a.rb", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.pattern, tt.name), "%s ~ %s", tt.pattern, tt.name)
	}
}

func TestExcluded(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{Root: root, Exclude: []string{"vendor/**", "db/schema.rb"}}
	assert.True(t, cfg.Excluded(filepath.Join(root, "vendor", "gems", "a.rb")))
	assert.True(t, cfg.Excluded(filepath.Join(root, "db", "schema.rb")))
	assert.False(t, cfg.Excluded(filepath.Join(root, "app", "a.rb")))
	assert.False(t, Default(root).Excluded(filepath.Join(root, "vendor", "a.rb")))
}

func TestInitRoundTrip(t *testing.T) {
	dir := t.TempDir()
	reg := registry()
	path, err := Init(dir, reg, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, NativeName), path)

	cfg, err := LoadNative(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, DefaultExclude, cfg.Exclude)

	settings, err := cfg.Settings(reg)
	require.NoError(t, err)
	defaults, _ := reg.Defaults(security.OpenName)
	assert.Equal(t, defaults.Enabled, settings[security.OpenName].Enabled)
	assert.Equal(t, defaults.Severity, settings[security.OpenName].Severity)

	_, err = Init(dir, reg, false)
	assert.True(t, errors.Is(err, ErrExists))
	_, err = Init(dir, reg, true)
	assert.NoError(t, err)
}

func TestFingerprint(t *testing.T) {
	reg := registry()
	cfg := Default(t.TempDir())
	base, err := cfg.Settings(reg)
	require.NoError(t, err)

	on := true
	cfg2 := Default(cfg.Root)
	cfg2.Overrides[security.OpenName] = cop.Override{Options: map[string]any{security.OptDisallowAll: on}}
	strict, err := cfg2.Settings(reg)
	require.NoError(t, err)

	assert.Equal(t, cfg.Fingerprint(base), cfg.Fingerprint(base))
	assert.NotEqual(t, cfg.Fingerprint(base), cfg2.Fingerprint(strict))

	cfg3 := Default(cfg.Root)
	cfg3.Exclude = []string{"vendor/**"}
	assert.NotEqual(t, cfg.Fingerprint(base), cfg3.Fingerprint(base))
}
