package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/hire-labor/internal/registry"
)

// FileStore reads workers from a YAML or JSON file. The file holds either a
// list of workers or a mapping with a "workers" list.
type FileStore struct {
	Path string
}

type fileDocument struct {
	Workers []registry.RawRecord `yaml:"workers"`
}

func NewFile(path string) *FileStore {
	return &FileStore{Path: strings.TrimSpace(path)}
}

func (s *FileStore) FetchAll(ctx context.Context) ([]registry.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Path == "" {
		return nil, fmt.Errorf("workers file is not configured")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read workers file: %w", err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("parse workers file %q: %w", s.Path, err)
	}

	return records, nil
}

func decodeRecords(data []byte) ([]registry.RawRecord, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	// An empty file is an empty registry.
	if root.Kind == 0 || len(root.Content) == 0 {
		return []registry.RawRecord{}, nil
	}

	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		var records []registry.RawRecord
		if err := node.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	case yaml.MappingNode:
		var doc fileDocument
		if err := node.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.Workers == nil {
			doc.Workers = []registry.RawRecord{}
		}
		return doc.Workers, nil
	default:
		return nil, fmt.Errorf("expected a list of workers or a workers mapping")
	}
}
