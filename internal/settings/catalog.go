package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Profile struct {
	Name        string `yaml:"name"`
	ModelID     string `yaml:"modelId"`
	Description string `yaml:"description"`
}

// Catalog lists the selectable model profiles and any response styles that
// extend or override the built-in ones.
type Catalog struct {
	Profiles []Profile         `yaml:"profiles"`
	Styles   map[string]string `yaml:"styles"`
}

var defaultProfiles = []Profile{
	{
		Name:        "KYNSEY Mini",
		ModelID:     "llama3.2:3b-instruct-fp16",
		Description: "Lightweight model optimized for quick responses and basic tasks",
	},
	{
		Name:        "KYNSEY Vision",
		ModelID:     "gemma3:27b-it-q4_K_M",
		Description: "Advanced model with image understanding capabilities",
	},
	{
		Name:        "KYNSEY Innovex",
		ModelID:     "cogito:32b-v1-preview-qwen-q4_K_M",
		Description: "High-performance model for complex reasoning and innovation",
	},
}

func DefaultCatalog() Catalog {
	return Catalog{Profiles: append([]Profile(nil), defaultProfiles...)}
}

// LoadCatalog reads a yaml catalog file. An empty path yields the default
// catalog, and a file without profiles keeps the default profiles.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("error reading catalog file '%s': %w", path, err)
	}

	var catalog Catalog
	if err := yaml.UnmarshalStrict(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("error parsing catalog file '%s': %w", path, err)
	}

	if len(catalog.Profiles) == 0 {
		catalog.Profiles = DefaultCatalog().Profiles
	}

	seen := make(map[string]bool, len(catalog.Profiles))
	for _, p := range catalog.Profiles {
		if p.Name == "" || p.ModelID == "" {
			return Catalog{}, fmt.Errorf("invalid profile in catalog '%s': name and modelId are required", path)
		}
		if seen[p.Name] {
			return Catalog{}, fmt.Errorf("duplicate profile '%s' in catalog '%s'", p.Name, path)
		}
		seen[p.Name] = true
	}

	return catalog, nil
}
