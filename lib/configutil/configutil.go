// Package configutil reads json5 configuration files with optional local
// overrides sitting next to them.
package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
)

// LocalPath returns the override file of name, "dir/app.json5" becomes
// "dir/app.local.json5".
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readFile[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig decodes a configuration file into out, `name` should come with a
// file extension. The following files are decoded in order, so keys set in a
// later file take priority and keys it leaves out keep their current value.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// Values already in out act as defaults, an explicit zero in a file still
// replaces them. os.ErrNotExist is returned when neither file exists.
func ReadConfig[T any](name string, out *T) error {
	found, err := readFile(name, out)
	if err != nil {
		return err
	}

	localPath := LocalPath(name)
	foundLocal, err := readFile(localPath, out)
	if err != nil {
		return err
	}
	if foundLocal {
		slog.Info("applying local config overrides", "local", localPath)
	}

	if !found && !foundLocal {
		return os.ErrNotExist
	}
	return nil
}

// ReadRecursively is ReadConfig but it goes up the filesystem from the
// working directory until the root to find a configuration file matching
// the name.
func ReadRecursively[T any](name string, out *T) error {
	current, err := os.Getwd()
	if err != nil {
		return err
	}
	for {
		err := ReadConfig(filepath.Join(current, name), out)
		if !os.IsNotExist(err) {
			return err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return os.ErrNotExist
		}
		current = parent
	}
}
