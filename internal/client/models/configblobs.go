package models

import "strings"

// Config blobs are singleton-per-user documents keyed by a fixed logical key
// rather than an id. Whatever shape arrives from the remote store or an
// imported archive goes through the Normalize* function for its kind, which
// always returns a fully-populated canonical structure.

// LocationConfig lists the user's growing locations.
type LocationConfig struct {
	Locations []string `json:"locations"`
}

// CatalogPlant is one species entry in the plant catalog.
type CatalogPlant struct {
	Name      string   `json:"name"`
	Varieties []string `json:"varieties"`
}

// PlantCatalog is the user's species/variety picker content.
type PlantCatalog struct {
	Plants []CatalogPlant `json:"plants"`
}

// CareProfile holds default care cadence for a species.
type CareProfile struct {
	WaterIntervalDays     int    `json:"waterIntervalDays"`
	FertilizeIntervalDays int    `json:"fertilizeIntervalDays"`
	Light                 string `json:"light"`
}

// PlantCareProfiles maps species name to its care profile.
type PlantCareProfiles struct {
	Profiles map[string]CareProfile `json:"profiles"`
}

// Built-in defaults used to fill gaps during normalization.
func defaultLocations() []string {
	return []string{"Indoors", "Balcony", "Garden"}
}

func defaultCatalog() []CatalogPlant {
	return []CatalogPlant{
		{Name: "Tomato", Varieties: []string{"Cherry", "Roma", "Beefsteak"}},
		{Name: "Basil", Varieties: []string{"Genovese", "Thai"}},
		{Name: "Monstera", Varieties: []string{"Deliciosa"}},
	}
}

func defaultCareProfiles() map[string]CareProfile {
	return map[string]CareProfile{
		"Tomato":   {WaterIntervalDays: 2, FertilizeIntervalDays: 14, Light: "full sun"},
		"Basil":    {WaterIntervalDays: 2, FertilizeIntervalDays: 21, Light: "full sun"},
		"Monstera": {WaterIntervalDays: 7, FertilizeIntervalDays: 30, Light: "bright indirect"},
	}
}

// NormalizeLocations returns a LocationConfig with a non-nil, non-empty
// location list, falling back to the built-in defaults.
func NormalizeLocations(in *LocationConfig) LocationConfig {
	if in == nil || len(in.Locations) == 0 {
		return LocationConfig{Locations: defaultLocations()}
	}
	return LocationConfig{Locations: DedupFold(in.Locations)}
}

// NormalizeCatalog returns a PlantCatalog with non-nil plant and variety
// lists, falling back to the built-in defaults.
func NormalizeCatalog(in *PlantCatalog) PlantCatalog {
	if in == nil || len(in.Plants) == 0 {
		return PlantCatalog{Plants: defaultCatalog()}
	}
	out := PlantCatalog{Plants: make([]CatalogPlant, 0, len(in.Plants))}
	for _, p := range in.Plants {
		if p.Name == "" {
			continue
		}
		if p.Varieties == nil {
			p.Varieties = []string{}
		} else {
			p.Varieties = DedupFold(p.Varieties)
		}
		out.Plants = append(out.Plants, p)
	}
	if len(out.Plants) == 0 {
		out.Plants = defaultCatalog()
	}
	return out
}

// NormalizeCareProfiles returns a PlantCareProfiles whose map is non-nil and
// whose every entry is fully populated; missing cadences inherit defaults.
func NormalizeCareProfiles(in *PlantCareProfiles) PlantCareProfiles {
	out := PlantCareProfiles{Profiles: defaultCareProfiles()}
	if in == nil {
		return out
	}
	for name, p := range in.Profiles {
		if name == "" {
			continue
		}
		base := out.Profiles[name]
		if p.WaterIntervalDays <= 0 {
			if base.WaterIntervalDays > 0 {
				p.WaterIntervalDays = base.WaterIntervalDays
			} else {
				p.WaterIntervalDays = 7
			}
		}
		if p.FertilizeIntervalDays <= 0 {
			if base.FertilizeIntervalDays > 0 {
				p.FertilizeIntervalDays = base.FertilizeIntervalDays
			} else {
				p.FertilizeIntervalDays = 30
			}
		}
		if p.Light == "" {
			if base.Light != "" {
				p.Light = base.Light
			} else {
				p.Light = "bright indirect"
			}
		}
		out.Profiles[name] = p
	}
	return out
}

// DedupFold combines list entries case-insensitively while preserving the
// order of first occurrence. The first spelling seen wins.
func DedupFold(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// MergeFold layers incoming entries onto existing ones with case-insensitive,
// order-preserving de-duplication: existing entries first, then incoming ones
// not already present under case folding.
func MergeFold(existing, incoming []string) []string {
	return DedupFold(append(append([]string{}, existing...), incoming...))
}
