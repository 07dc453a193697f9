package conformance

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadedCase pairs a case with the file it came from, for readable
// subtest names.
type LoadedCase struct {
	File string
	Case Case
}

// LoadDir reads every *.yaml file directly under dir and returns all
// cases found, in file-then-declaration order.
func LoadDir(dir string) ([]LoadedCase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}

	var out []LoadedCase
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		cases, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		for _, c := range cases {
			out = append(out, LoadedCase{File: entry.Name(), Case: c})
		}
	}
	return out, nil
}

func loadFile(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	return suite.Cases, nil
}
