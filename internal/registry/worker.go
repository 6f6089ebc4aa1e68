package registry

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spigell/hire-labor/internal/taxonomy"
)

const (
	// FallbackLat and FallbackLng are used when a source record has no coordinates.
	FallbackLat = 17.6599
	FallbackLng = 75.9064

	unnamedWorker = "Unnamed worker"
)

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Worker is a normalized registry record. All fields are populated.
type Worker struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Skill     string   `json:"skill"`
	Phone     string   `json:"phone"`
	Available bool     `json:"available"`
	Location  Location `json:"location"`
}

// RawRecord is a worker record as returned by a store, before defaults are applied.
type RawRecord struct {
	ID        string   `json:"id" yaml:"id" mapstructure:"id"`
	Name      string   `json:"name" yaml:"name" mapstructure:"name"`
	Skill     string   `json:"skill" yaml:"skill" mapstructure:"skill"`
	Phone     string   `json:"phone" yaml:"phone" mapstructure:"phone"`
	Available *bool    `json:"available" yaml:"available" mapstructure:"available"`
	Lat       *float64 `json:"lat" yaml:"lat" mapstructure:"lat"`
	Lng       *float64 `json:"lng" yaml:"lng" mapstructure:"lng"`
}

// Normalize applies ingestion defaults to raw records and keeps only the first
// record for every id. It returns the workers in source order and the ids of
// dropped duplicates.
func Normalize(records []RawRecord) ([]Worker, []string) {
	workers := make([]Worker, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	var duplicates []string

	for _, raw := range records {
		w := normalize(raw)
		if _, ok := seen[w.ID]; ok {
			duplicates = append(duplicates, w.ID)
			continue
		}
		seen[w.ID] = struct{}{}
		workers = append(workers, w)
	}

	return workers, duplicates
}

func normalize(raw RawRecord) Worker {
	w := Worker{
		ID:        strings.TrimSpace(raw.ID),
		Name:      strings.TrimSpace(raw.Name),
		Skill:     strings.TrimSpace(raw.Skill),
		Phone:     strings.TrimSpace(raw.Phone),
		Available: true,
		Location:  Location{Lat: FallbackLat, Lng: FallbackLng},
	}

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Name == "" {
		w.Name = unnamedWorker
	}
	if w.Skill == "" {
		w.Skill = taxonomy.GeneralLabor
	}
	if raw.Available != nil {
		w.Available = *raw.Available
	}
	// A half-specified coordinate is as useless as a missing one.
	if raw.Lat != nil && raw.Lng != nil {
		w.Location = Location{Lat: *raw.Lat, Lng: *raw.Lng}
	}

	return w
}
