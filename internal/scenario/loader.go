package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNoScenarios = errors.New("no scenarios found")

// Load reads scenarios from a YAML file, or from every .yaml and .yml file
// beneath a directory
func Load(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario path: %w", err)
	}
	if !info.IsDir() {
		return LoadFile(path)
	}

	var res []*Scenario
	err = filepath.WalkDir(path,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isYAMLFile(p) {
				return nil
			}
			scs, err := LoadFile(p)
			if err != nil {
				return err
			}
			res = append(res, scs...)
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", path, err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoScenarios, path)
	}
	return res, nil
}

// LoadFile reads every scenario document in a single YAML file
func LoadFile(path string) ([]*Scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	res, err := Parse(content, path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Scenarios loaded",
		slog.String("file", path),
		slog.Int("count", len(res)))
	return res, nil
}

// Parse decodes and validates the scenario documents in data. The file
// name is recorded on each scenario for reporting
func Parse(data []byte, file string) ([]*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var res []*Scenario
	for {
		sc := &Scenario{}
		err := dec.Decode(sc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", file, err)
		}
		sc.File = file
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scenario %q in %s: %w",
				sc.Name, file, err)
		}
		res = append(res, sc)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoScenarios, file)
	}
	return res, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
