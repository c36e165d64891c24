package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

// readAllowlist loads allowlist entries from a YAML or JSON list
func readAllowlist(path string) ([]controls.AllowlistEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []controls.AllowlistEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse allowlist %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("allowlist %s has no entries", path)
	}
	return entries, nil
}

// readDocument loads a YAML (or JSON) mapping and re-encodes it as a JSON request body
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return doc, nil
}

// readPhase loads a phase document. An "allowlist" key naming an entries file,
// relative to the phase file, makes the phase private under that list's root.
func readPhase(path string) ([]byte, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	if ref, ok := doc["allowlist"]; ok {
		name, ok := ref.(string)
		if !ok {
			return nil, fmt.Errorf("allowlist must be a file path")
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(filepath.Dir(path), name)
		}
		entries, err := readAllowlist(name)
		if err != nil {
			return nil, err
		}
		tree, err := controls.BuildTree(entries)
		if err != nil {
			return nil, err
		}
		delete(doc, "allowlist")
		doc["is_private"] = true
		doc["merkle_root"] = tree.Root().String()
	}
	if _, ok := doc["active"]; !ok {
		doc["active"] = true
	}

	return json.Marshal(doc)
}

func readJSONBody(path string) ([]byte, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
