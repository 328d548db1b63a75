package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// resolveProfilePath turns a profile name into a file path. Anything that
// looks like a path is used as given; a bare name is looked up in dir as
// name.yaml.
func resolveProfilePath(nameOrPath, dir string) string {
	if strings.ContainsRune(nameOrPath, filepath.Separator) || strings.HasPrefix(nameOrPath, "~") {
		return ExpandPath(nameOrPath)
	}
	switch strings.ToLower(filepath.Ext(nameOrPath)) {
	case ".yaml", ".yml":
		return filepath.Join(ExpandPath(dir), nameOrPath)
	}
	return filepath.Join(ExpandPath(dir), nameOrPath+".yaml")
}

// LoadProfileFile reads, decodes and validates a profile. A profile without
// a name takes the file's base name.
func LoadProfileFile(path string) (*Profile, error) {
	if path == "" {
		return nil, errors.New("profile path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}
	p, err := decodeProfile(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func decodeProfile(b []byte) (*Profile, error) {
	var p Profile

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode profile yaml: unexpected trailing document")
	}
	return &p, nil
}
