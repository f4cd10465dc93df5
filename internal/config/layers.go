package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/layermap/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseLayerCatalog parses the YAML layer catalog at filePath.
func ParseLayerCatalog(filePath string) (*models.LayerCatalog, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseLayerCatalogFromReader(file)
}

// ParseLayerCatalogFromReader parses a catalog from an io.Reader.
func ParseLayerCatalogFromReader(r io.Reader) (*models.LayerCatalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var catalog models.LayerCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}

	for i, spec := range catalog.Layers {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, fmt.Errorf("layer %d: name is required", i+1)
		}
		if spec.Source == "" && spec.Records == nil {
			return nil, fmt.Errorf("layer %q: source or records is required", spec.Name)
		}
	}
	return &catalog, nil
}
