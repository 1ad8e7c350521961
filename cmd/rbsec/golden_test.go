package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// runCLI runs the command tree in-process and returns its outputs.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func repoRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return root
}

func TestSecurityOpenGolden(t *testing.T) {
	root := repoRoot(t)
	t.Chdir(root)

	suiteRel := filepath.Join("testdata", "golden", "security_open")
	entries, err := os.ReadDir(suiteRel)
	if err != nil {
		t.Fatalf("read security_open dir: %v", err)
	}

	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".rb") {
			continue
		}
		name := strings.TrimSuffix(ent.Name(), ".rb")
		t.Run(name, func(t *testing.T) {
			rbRel := filepath.ToSlash(filepath.Join(suiteRel, name+".rb"))

			wantOutBytes, err := os.ReadFile(filepath.Join(suiteRel, name+".out"))
			if err != nil {
				t.Fatalf("read %s.out: %v", name, err)
			}
			wantOut := string(wantOutBytes)
			wantCode := 0
			if b, err := os.ReadFile(filepath.Join(suiteRel, name+".code")); err == nil {
				n, err := strconv.Atoi(strings.TrimSpace(string(b)))
				if err != nil {
					t.Fatalf("parse %s.code: %v", name, err)
				}
				wantCode = n
			}

			args := []string{"lint", "--format", "short", "--color", "off", "--ui", "off"}
			if b, err := os.ReadFile(filepath.Join(suiteRel, name+".args")); err == nil {
				args = append(args, strings.Fields(string(b))...)
			}
			args = append(args, rbRel)

			stdout, stderr, code := runCLI(t, args...)
			if code != wantCode {
				t.Fatalf("exit code: want %d, got %d\nstdout:\n%s\nstderr:\n%s", wantCode, code, stdout, stderr)
			}
			if stderr != "" {
				t.Fatalf("unexpected stderr:\n%s", stderr)
			}
			if stdout != wantOut {
				t.Fatalf("output mismatch:\nwant:\n%s\n\ngot:\n%s", wantOut, stdout)
			}
		})
	}
}
