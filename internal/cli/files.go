package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DiscoverInputs walks dir recursively and returns every .yml and .yaml
// file, sorted so batch runs are deterministic.
func DiscoverInputs(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yml", ".yaml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadTree reads a record tree from path. The format follows the file
// extension: .json is parsed as JSON, everything else as YAML.
func LoadTree(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tree map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return tree, nil
	}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tree, nil
}

// SaveTree writes a record tree to path, creating parent directories as
// needed. Format selection mirrors LoadTree. YAML output uses a 2-space
// indent.
func SaveTree(path string, tree map[string]any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		data = append(data, '\n')
	} else {
		var sb strings.Builder
		enc := yaml.NewEncoder(&sb)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		data = []byte(sb.String())
	}
	return os.WriteFile(path, data, 0o644)
}

// avoidCollision returns an output path that never points at the input
// file. When they coincide the output gains a "_converted" suffix before
// the extension.
func avoidCollision(inputPath, outputPath string) string {
	absIn, err1 := filepath.Abs(inputPath)
	absOut, err2 := filepath.Abs(outputPath)
	if err1 != nil || err2 != nil || absIn != absOut {
		return outputPath
	}
	ext := filepath.Ext(outputPath)
	base := strings.TrimSuffix(filepath.Base(outputPath), ext)
	return filepath.Join(filepath.Dir(outputPath), base+"_converted"+ext)
}
