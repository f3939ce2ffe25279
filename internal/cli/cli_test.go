package cli

import (
	"bytes"
	"strings"
	"testing"
)

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config-dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestWorkspaceCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "workspace", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "* default") {
		t.Fatalf("list output: %q", out)
	}

	if _, err := runCLI(t, dir, "workspace", "new", "scratch"); err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err = runCLI(t, dir, "workspace", "current")
	if err != nil || strings.TrimSpace(out) != "scratch" {
		t.Fatalf("current = %q, %v", out, err)
	}

	// Creating a taken name fails loudly.
	if _, err := runCLI(t, dir, "workspace", "new", "scratch"); err == nil {
		t.Fatalf("duplicate workspace accepted")
	}

	if _, err := runCLI(t, dir, "workspace", "switch", "default"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	out, _ = runCLI(t, dir, "workspace", "current")
	if strings.TrimSpace(out) != "default" {
		t.Fatalf("current = %q", out)
	}

	if _, err := runCLI(t, dir, "workspace", "switch", "missing"); err == nil {
		t.Fatalf("switch to missing workspace accepted")
	}
}

func TestExportPrintsMarkdownBullets(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "- Welcome to liner") {
		t.Fatalf("export output: %q", out)
	}
	// Seed tips are nested one level under the welcome root.
	if !strings.Contains(out, "  - ") {
		t.Fatalf("export output has no nesting: %q", out)
	}

	if _, err := runCLI(t, dir, "export", "--root", "nope"); err == nil {
		t.Fatalf("export of unknown root accepted")
	}
}

func TestSaveCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "save")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.Contains(out, `saved workspace "default"`) {
		t.Fatalf("save output: %q", out)
	}
}
