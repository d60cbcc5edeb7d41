package registry

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"example.com/activityregistry/internal/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedDocument struct {
	Activities []seedActivity `yaml:"activities"`
}

type seedActivity struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Schedule        string   `yaml:"schedule"`
	MaxParticipants int      `yaml:"max_participants"`
	Participants    []string `yaml:"participants"`
}

// DefaultSeed decodes the embedded catalog.
func DefaultSeed() ([]domain.Activity, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeedFile reads a catalog document from disk.
func LoadSeedFile(path string) ([]domain.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML catalog document.
func ParseSeed(data []byte) ([]domain.Activity, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := make([]domain.Activity, 0, len(doc.Activities))
	for _, item := range doc.Activities {
		participants := item.Participants
		if participants == nil {
			participants = []string{}
		}
		out = append(out, domain.Activity{
			Name:            item.Name,
			Description:     item.Description,
			Schedule:        item.Schedule,
			MaxParticipants: item.MaxParticipants,
			Participants:    participants,
		})
	}
	if err := validateSeed(out); err != nil {
		return nil, err
	}
	return out, nil
}
