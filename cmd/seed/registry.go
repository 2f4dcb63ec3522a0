package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/goccy/go-yaml"
)

// registryEntry is one row of the public arcade registry export. x and y
// are EPSG:5174 meters and may be written as numbers or strings.
type registryEntry struct {
	Name         string `yaml:"name"`
	Address      string `yaml:"address"`
	Phone        string `yaml:"phone"`
	X            any    `yaml:"x"`
	Y            any    `yaml:"y"`
	OpeningHours string `yaml:"opening_hours"`
	MachineCount int    `yaml:"machine_count"`
}

type registry struct {
	Stores []registryEntry `yaml:"stores"`
}

// parseRegistry decodes a registry file into stores ready for insertion.
// Coordinates are kept as text exactly as published.
func parseRegistry(data []byte) ([]stores.Shop, error) {
	var reg registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	out := make([]stores.Shop, 0, len(reg.Stores))
	for i, e := range reg.Stores {
		name := strings.TrimSpace(e.Name)
		address := strings.TrimSpace(e.Address)
		if name == "" || address == "" {
			return nil, fmt.Errorf("entry %d: name and address are required", i+1)
		}
		if e.MachineCount < 0 {
			return nil, fmt.Errorf("entry %d (%s): machine_count must not be negative", i+1, name)
		}

		shop := stores.Shop{
			Name:         name,
			Address:      address,
			CoordX:       coordText(e.X),
			CoordY:       coordText(e.Y),
			MachineCount: e.MachineCount,
			ImageURLs:    []string{},
		}
		if p := strings.TrimSpace(e.Phone); p != "" {
			shop.Phone = &p
		}
		if h := strings.TrimSpace(e.OpeningHours); h != "" {
			shop.OpeningHours = &h
		}
		out = append(out, shop)
	}
	return out, nil
}

func coordText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(c), 'f', -1, 32)
	default:
		return fmt.Sprint(c)
	}
}
