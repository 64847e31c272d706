package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CardCollection represents the cards YAML document
type CardCollection struct {
	Name  string   `yaml:"name"`
	Cards []string `yaml:"cards"`
}

// LoadCardPool parses a cards YAML document into a pool
func LoadCardPool(data []byte) (*CardPool, error) {
	var collection CardCollection
	if err := yaml.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("failed to parse cards: %w", err)
	}

	pool := NewCardPool(collection.Cards)
	if pool.Size() == 0 {
		return nil, fmt.Errorf("card collection %q has no cards", collection.Name)
	}
	return pool, nil
}

// LoadCardPoolFile reads a cards file from disk, falling back to the
// embedded default when path is empty
func LoadCardPoolFile(path string, fallback []byte) (*CardPool, error) {
	if path == "" {
		return LoadCardPool(fallback)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cards file %s: %w", path, err)
	}
	return LoadCardPool(data)
}
