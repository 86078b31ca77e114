package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func seedCaseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"install.case": "__summary__\ns\n__steps__\ntrue\n",
		"data.txt":     "payload\n",
		"helper.sh":    "#!/bin/sh\necho helper\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatalf("seed subdir: %v", err)
	}
	return dir
}

func TestNewRunDirectoryIsUnique(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{Root: t.TempDir()})
	caseDir := seedCaseDir(t)

	first, err := p.NewRunDirectory("", caseDir, nil)
	if err != nil {
		t.Fatalf("first NewRunDirectory: %v", err)
	}
	second, err := p.NewRunDirectory("", caseDir, nil)
	if err != nil {
		t.Fatalf("second NewRunDirectory: %v", err)
	}
	if first == second {
		t.Fatalf("run directories must be unique, both are %s", first)
	}
}

func TestNewRunDirectoryKeyedByVersion(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := NewProvider(Config{Root: root})

	dir, err := p.NewRunDirectory("2.1", seedCaseDir(t), nil)
	if err != nil {
		t.Fatalf("NewRunDirectory: %v", err)
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		t.Fatalf("rel: %v", err)
	}
	if !strings.HasPrefix(rel, "2.1"+string(filepath.Separator)) {
		t.Fatalf("run directory %s not keyed under version", rel)
	}
}

func TestNewRunDirectoryCopiesDataFiles(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{Root: t.TempDir()})
	dir, err := p.NewRunDirectory("", seedCaseDir(t), nil)
	if err != nil {
		t.Fatalf("NewRunDirectory: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "data.txt"))
	if err != nil {
		t.Fatalf("data file not copied: %v", err)
	}
	if string(data) != "payload\n" {
		t.Fatalf("data file content %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "helper.sh")); err != nil {
		t.Fatalf("helper not copied: %v", err)
	}

	// Case files and directories stay behind.
	if _, err := os.Stat(filepath.Join(dir, "install.case")); !os.IsNotExist(err) {
		t.Fatalf("case file must not be copied, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "subdir")); !os.IsNotExist(err) {
		t.Fatalf("directories must not be copied, stat err = %v", err)
	}
}

func TestNewRunDirectoryCopiesFixtures(t *testing.T) {
	t.Parallel()

	fixtures := t.TempDir()
	if err := os.MkdirAll(filepath.Join(fixtures, "certs", "inner"), 0o755); err != nil {
		t.Fatalf("seed fixtures: %v", err)
	}
	writes := map[string]string{
		filepath.Join(fixtures, "certs", "ca.pem"):        "cert\n",
		filepath.Join(fixtures, "certs", "inner", "k.key"): "key\n",
		filepath.Join(fixtures, "seed.sql"):                "select 1;\n",
	}
	for path, body := range writes {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("seed %s: %v", path, err)
		}
	}

	p := NewProvider(Config{Root: t.TempDir(), FixturesDir: fixtures})
	dir, err := p.NewRunDirectory("", seedCaseDir(t), []string{"certs", "seed.sql"})
	if err != nil {
		t.Fatalf("NewRunDirectory: %v", err)
	}

	for _, rel := range []string{
		filepath.Join("certs", "ca.pem"),
		filepath.Join("certs", "inner", "k.key"),
		"seed.sql",
	} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Fatalf("fixture %s not copied: %v", rel, err)
		}
	}
}

func TestFixtureWithoutFixturesDirFails(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{Root: t.TempDir()})
	_, err := p.NewRunDirectory("", seedCaseDir(t), []string{"certs"})
	if err == nil || !strings.Contains(err.Error(), "no fixtures directory") {
		t.Fatalf("error = %v", err)
	}
}

func TestMissingFixtureFails(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{Root: t.TempDir(), FixturesDir: t.TempDir()})
	_, err := p.NewRunDirectory("", seedCaseDir(t), []string{"absent"})
	if err == nil || !strings.Contains(err.Error(), "copy fixture absent") {
		t.Fatalf("error = %v", err)
	}
}

func TestCleanupRemovesRunDirectory(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{Root: t.TempDir()})
	dir, err := p.NewRunDirectory("", seedCaseDir(t), nil)
	if err != nil {
		t.Fatalf("NewRunDirectory: %v", err)
	}

	if err := p.Cleanup(context.Background(), dir); err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("run directory still present, stat err = %v", err)
	}
}
