package scraper

import (
	"os"

	"gopkg.in/yaml.v3"

	apperrors "newscast/errors"
	"newscast/validation"
)

// Source is one RSS feed to scrape.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Language string `yaml:"language"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the YAML source list, dropping disabled entries.
func LoadSources(path string) ([]Source, error) {
	const op = "scraper.LoadSources"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to read sources file")
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.Internal(op, err, "Failed to parse sources file")
	}

	var sources []Source
	for _, s := range file.Sources {
		if s.Disabled {
			continue
		}
		if s.Name == "" || s.URL == "" {
			return nil, apperrors.InvalidInput(op, nil, "Source entries require name and url")
		}
		if err := validation.ValidateURL(s.URL); err != nil {
			return nil, err
		}
		if s.Language == "" {
			s.Language = "en"
		}
		sources = append(sources, s)
	}

	if len(sources) == 0 {
		return nil, apperrors.InvalidInput(op, nil, "No enabled sources configured")
	}

	return sources, nil
}
