// Package workspace provisions isolated run directories.
package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/huanghao/nose-xcase/internal/expect"
	"github.com/huanghao/nose-xcase/internal/ports"
)

// Ensure Provider implements ports.Workspace.
var _ ports.Workspace = (*Provider)(nil)

// Config describes where run directories and fixtures live.
type Config struct {
	// Root is the base directory for run directories.
	Root string
	// FixturesDir holds named fixtures copied into run directories.
	FixturesDir string
	// SudoPassword, when set, enables sudo-backed cleanup of root-owned
	// leftovers.
	SudoPassword string
}

// Provider allocates a fresh, exclusively-owned directory per run.
type Provider struct {
	cfg Config
}

// NewProvider constructs a Provider.
func NewProvider(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

// NewRunDirectory creates a unique directory keyed under version, seeds it
// with the case's sibling data files and the named fixtures, and returns
// its path.
func (p *Provider) NewRunDirectory(version, caseDir string, fixtures []string) (string, error) {
	base := p.cfg.Root
	if version != "" {
		base = filepath.Join(base, version)
	}

	name := fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}

	if err := copyDataFiles(caseDir, dir); err != nil {
		return "", err
	}

	for _, fixture := range fixtures {
		if p.cfg.FixturesDir == "" {
			return "", fmt.Errorf("fixture %q requested but no fixtures directory configured", fixture)
		}
		src := filepath.Join(p.cfg.FixturesDir, fixture)
		if err := copyTree(src, filepath.Join(dir, filepath.Base(fixture))); err != nil {
			return "", fmt.Errorf("copy fixture %s: %w", fixture, err)
		}
	}
	return dir, nil
}

// Cleanup removes a finished run directory. Cases can leave root-owned
// files behind; those are removed with sudo when a credential is
// configured.
func (p *Provider) Cleanup(ctx context.Context, dir string) error {
	err := os.RemoveAll(dir)
	if err == nil {
		return nil
	}
	if p.cfg.SudoPassword == "" {
		return err
	}

	status, serr := expect.Sudo(ctx, "rm -rf "+dir, p.cfg.SudoPassword, io.Discard)
	if serr != nil {
		return serr
	}
	if status != 0 {
		return fmt.Errorf("sudo rm -rf %s exited %d", dir, status)
	}
	return nil
}

// copyDataFiles copies the regular files next to the case file (its data
// files) into the run directory, skipping other case files.
func copyDataFiles(caseDir, dst string) error {
	entries, err := os.ReadDir(caseDir)
	if err != nil {
		return fmt.Errorf("read case directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".case") {
			continue
		}
		src := filepath.Join(caseDir, e.Name())
		if err := copyFile(src, filepath.Join(dst, e.Name())); err != nil {
			return fmt.Errorf("copy data file %s: %w", e.Name(), err)
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst)
	}

	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := copyTree(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
