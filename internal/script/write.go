package script

import (
	"fmt"
	"os"
	"path/filepath"
)

// Files holds the on-disk paths of the persisted phase scripts. A path is
// empty when the corresponding phase does not exist.
type Files struct {
	Setup    string
	Steps    string
	Teardown string
}

// Write persists the synthesized texts under the metadata subdirectory,
// one file per phase.
func Write(texts Texts, metaDir string) (Files, error) {
	var files Files

	write := func(name, text string, dst *string) error {
		if text == "" {
			return nil
		}
		path := filepath.Join(metaDir, name)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write %s script: %w", name, err)
		}
		*dst = path
		return nil
	}

	if err := write("setup", texts.Setup, &files.Setup); err != nil {
		return Files{}, err
	}
	if err := write("steps", texts.Steps, &files.Steps); err != nil {
		return Files{}, err
	}
	if err := write("teardown", texts.Teardown, &files.Teardown); err != nil {
		return Files{}, err
	}
	return files, nil
}
