package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pitabwire/util"
	"gopkg.in/yaml.v3"
)

// LoadDir merges every translation file found directly under dir. The file
// name up to the extension is the locale, e.g. "en-US.yml" or "fr.json".
// Supported formats are json, yaml and toml.
func (s *Store) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("load translations dir %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		unmarshal, ok := unmarshalers[ext]
		if !ok {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("load translation file %q: %w", name, err)
		}

		tree := make(Tree)
		if err = unmarshal(data, &tree); err != nil {
			return fmt.Errorf("parse translation file %q: %w", name, err)
		}

		locale := strings.TrimSuffix(name, ext)
		normalized, err := s.AddTranslations(locale, tree)
		if err != nil {
			return err
		}

		util.Log(ctx).
			WithField("locale", normalized).
			WithField("file", name).
			Debug("loaded translation file")
	}

	return nil
}

var unmarshalers = map[string]func([]byte, any) error{
	".json": json.Unmarshal,
	".yml":  yaml.Unmarshal,
	".yaml": yaml.Unmarshal,
	".toml": toml.Unmarshal,
}
