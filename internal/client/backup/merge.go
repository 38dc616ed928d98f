package backup

import (
	"strings"

	"github.com/plantfolk/plantkeeper/internal/client/models"
)

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Mode selects the import conflict policy.
type Mode string

const (
	// ModeMerge preserves existing records and layers imported ones on top
	// by id; on collision the imported record wins entirely.
	ModeMerge Mode = "merge"

	// ModeOverwrite replaces everything: remote records absent from the
	// import are deleted, local collections are fully replaced.
	ModeOverwrite Mode = "overwrite"
)

// MergeRecords layers incoming onto existing by id. Existing records keep
// their relative order; incoming records not seen before are appended in
// their own order. On id collision the incoming record replaces the existing
// one wholesale; no field-level merge is performed.
func MergeRecords[T models.Record](existing, incoming []T) []T {
	replacement := make(map[string]T, len(incoming))
	for _, in := range incoming {
		replacement[in.RecordID()] = in
	}

	out := make([]T, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing))
	for _, ex := range existing {
		id := ex.RecordID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if in, ok := replacement[id]; ok {
			out = append(out, in)
			continue
		}
		out = append(out, ex)
	}
	for _, in := range incoming {
		id := in.RecordID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, in)
	}
	return out
}

// mergeLocations combines existing and incoming location lists with
// case-insensitive, order-preserving de-duplication.
func mergeLocations(existing, incoming *models.LocationConfig) models.LocationConfig {
	ex := models.NormalizeLocations(existing)
	if incoming == nil {
		return ex
	}
	in := models.NormalizeLocations(incoming)
	return models.LocationConfig{Locations: models.MergeFold(ex.Locations, in.Locations)}
}

// mergeCatalog combines catalogs by plant name (case-insensitive), merging
// variety lists for plants present on both sides.
func mergeCatalog(existing, incoming *models.PlantCatalog) models.PlantCatalog {
	ex := models.NormalizeCatalog(existing)
	if incoming == nil {
		return ex
	}
	in := models.NormalizeCatalog(incoming)

	out := models.PlantCatalog{Plants: make([]models.CatalogPlant, 0, len(ex.Plants)+len(in.Plants))}
	index := make(map[string]int, len(ex.Plants))
	for _, p := range ex.Plants {
		index[foldKey(p.Name)] = len(out.Plants)
		out.Plants = append(out.Plants, p)
	}
	for _, p := range in.Plants {
		if i, ok := index[foldKey(p.Name)]; ok {
			out.Plants[i].Varieties = models.MergeFold(out.Plants[i].Varieties, p.Varieties)
			continue
		}
		index[foldKey(p.Name)] = len(out.Plants)
		out.Plants = append(out.Plants, p)
	}
	return out
}

// mergeCareProfiles layers incoming profiles over existing ones by species;
// an incoming profile wins wholesale.
func mergeCareProfiles(existing, incoming *models.PlantCareProfiles) models.PlantCareProfiles {
	ex := models.NormalizeCareProfiles(existing)
	if incoming == nil {
		return ex
	}
	in := models.NormalizeCareProfiles(incoming)
	for name, p := range in.Profiles {
		ex.Profiles[name] = p
	}
	return ex
}
