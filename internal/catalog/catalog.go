package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"wastetwin/internal/textutil"
)

const suggestThreshold = 0.5

// ErrUnknownCategory reports a category id that is not present in the catalog.
var ErrUnknownCategory = errors.New("unknown category")

// HazardTier classifies how dangerous a category is to deconstruct.
type HazardTier string

const (
	HazardLow    HazardTier = "low"
	HazardMedium HazardTier = "medium"
	HazardHigh   HazardTier = "high"
)

// ParseHazardTier converts a string into a known HazardTier.
func ParseHazardTier(value string) (HazardTier, bool) {
	switch HazardTier(strings.ToLower(strings.TrimSpace(value))) {
	case HazardLow:
		return HazardLow, true
	case HazardMedium:
		return HazardMedium, true
	case HazardHigh:
		return HazardHigh, true
	default:
		return "", false
	}
}

// CategorySpec describes one device category.
type CategorySpec struct {
	ID              string
	Materials       []string
	DurationSeconds int
	RecoveryRate    float64
	Hazard          HazardTier
}

// Duration returns the nominal processing time.
func (c CategorySpec) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

// HasMaterial reports whether material is part of the category composition.
func (c CategorySpec) HasMaterial(material string) bool {
	for _, m := range c.Materials {
		if m == material {
			return true
		}
	}
	return false
}

func (c CategorySpec) clone() CategorySpec {
	c.Materials = append([]string(nil), c.Materials...)
	return c
}

func (c CategorySpec) validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("category id must be set")
	}
	if len(c.Materials) == 0 {
		return fmt.Errorf("category %q: at least one material is required", c.ID)
	}
	seen := make(map[string]struct{}, len(c.Materials))
	for _, m := range c.Materials {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("category %q: empty material name", c.ID)
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("category %q: duplicate material %q", c.ID, m)
		}
		seen[m] = struct{}{}
	}
	if c.DurationSeconds <= 0 {
		return fmt.Errorf("category %q: processing_time must be positive", c.ID)
	}
	if c.RecoveryRate <= 0 || c.RecoveryRate > 1 {
		return fmt.Errorf("category %q: recovery_rate must be in (0, 1]", c.ID)
	}
	if _, ok := ParseHazardTier(string(c.Hazard)); !ok {
		return fmt.Errorf("category %q: unsupported hazard_level %q", c.ID, c.Hazard)
	}
	return nil
}

// Catalog is an immutable set of category specs keyed by id.
type Catalog struct {
	specs map[string]CategorySpec
	ids   []string
}

// New validates specs and builds a Catalog. Duplicate ids are rejected.
func New(specs []CategorySpec) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, errors.New("catalog must contain at least one category")
	}
	c := &Catalog{specs: make(map[string]CategorySpec, len(specs))}
	for _, spec := range specs {
		spec.ID = normalizeID(spec.ID)
		if tier, ok := ParseHazardTier(string(spec.Hazard)); ok {
			spec.Hazard = tier
		}
		if err := spec.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.specs[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q", spec.ID)
		}
		c.specs[spec.ID] = spec.clone()
		c.ids = append(c.ids, spec.ID)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultSpecs())
	if err != nil {
		panic(fmt.Sprintf("built-in catalog invalid: %v", err))
	}
	return c
}

// Lookup returns the spec for id.
func (c *Catalog) Lookup(id string) (CategorySpec, bool) {
	spec, ok := c.specs[normalizeID(id)]
	if !ok {
		return CategorySpec{}, false
	}
	return spec.clone(), true
}

// Require is Lookup returning ErrUnknownCategory when id is absent. The error
// names the closest known category when one is similar enough.
func (c *Catalog) Require(id string) (CategorySpec, error) {
	spec, ok := c.Lookup(id)
	if !ok {
		id = strings.TrimSpace(id)
		if suggestion, found := c.Suggest(id); found {
			return CategorySpec{}, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownCategory, id, suggestion)
		}
		return CategorySpec{}, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
	}
	return spec, nil
}

// Suggest returns the known category id closest to id.
func (c *Catalog) Suggest(id string) (string, bool) {
	return textutil.BestMatch(id, c.ids, suggestThreshold)
}

// List returns a copy of every spec keyed by category id.
func (c *Catalog) List() map[string]CategorySpec {
	out := make(map[string]CategorySpec, len(c.specs))
	for id, spec := range c.specs {
		out[id] = spec.clone()
	}
	return out
}

// Specs returns a copy of every spec ordered by id.
func (c *Catalog) Specs() []CategorySpec {
	out := make([]CategorySpec, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.specs[id].clone())
	}
	return out
}

// IDs returns the sorted category ids.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Len reports the number of categories.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Materials returns the sorted union of all category materials.
func (c *Catalog) Materials() []string {
	set := make(map[string]struct{})
	for _, spec := range c.specs {
		for _, m := range spec.Materials {
			set[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func normalizeID(id string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(id)), " ", "_")
}

var traceMaterials = map[string]struct{}{
	"lithium":   {},
	"cobalt":    {},
	"nickel":    {},
	"lead":      {},
	"gold":      {},
	"silver":    {},
	"palladium": {},
}

// IsTrace reports whether material is recovered in trace quantities.
func IsTrace(material string) bool {
	_, ok := traceMaterials[strings.ToLower(strings.TrimSpace(material))]
	return ok
}

// TraceMaterials returns the sorted trace material names.
func TraceMaterials() []string {
	out := make([]string, 0, len(traceMaterials))
	for m := range traceMaterials {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func defaultSpecs() []CategorySpec {
	return []CategorySpec{
		{ID: "battery", Materials: []string{"lithium", "cobalt", "nickel", "aluminum"}, DurationSeconds: 15, RecoveryRate: 0.85, Hazard: HazardHigh},
		{ID: "cables", Materials: []string{"copper", "plastic", "rubber"}, DurationSeconds: 8, RecoveryRate: 0.92, Hazard: HazardLow},
		{ID: "case", Materials: []string{"steel", "aluminum", "plastic"}, DurationSeconds: 12, RecoveryRate: 0.88, Hazard: HazardLow},
		{ID: "cpu", Materials: []string{"silicon", "gold", "silver", "copper"}, DurationSeconds: 25, RecoveryRate: 0.78, Hazard: HazardMedium},
		{ID: "cpu_coolers", Materials: []string{"aluminum", "copper", "steel"}, DurationSeconds: 10, RecoveryRate: 0.90, Hazard: HazardLow},
		{ID: "gpu", Materials: []string{"silicon", "gold", "silver", "copper", "plastic"}, DurationSeconds: 30, RecoveryRate: 0.75, Hazard: HazardMedium},
		{ID: "hdd", Materials: []string{"aluminum", "steel", "rare_earth_magnets"}, DurationSeconds: 18, RecoveryRate: 0.82, Hazard: HazardMedium},
		{ID: "headset", Materials: []string{"plastic", "copper", "steel"}, DurationSeconds: 6, RecoveryRate: 0.85, Hazard: HazardLow},
		{ID: "keyboard", Materials: []string{"plastic", "rubber", "copper"}, DurationSeconds: 7, RecoveryRate: 0.88, Hazard: HazardLow},
		{ID: "laptop", Materials: []string{"aluminum", "lithium", "gold", "silver", "copper", "plastic"}, DurationSeconds: 45, RecoveryRate: 0.70, Hazard: HazardHigh},
		{ID: "microphone", Materials: []string{"plastic", "copper", "steel"}, DurationSeconds: 5, RecoveryRate: 0.87, Hazard: HazardLow},
		{ID: "monitor", Materials: []string{"glass", "plastic", "copper", "lead"}, DurationSeconds: 35, RecoveryRate: 0.73, Hazard: HazardHigh},
		{ID: "motherboard", Materials: []string{"gold", "silver", "copper", "palladium", "silicon"}, DurationSeconds: 40, RecoveryRate: 0.68, Hazard: HazardHigh},
		{ID: "mouse", Materials: []string{"plastic", "copper", "steel"}, DurationSeconds: 4, RecoveryRate: 0.90, Hazard: HazardLow},
		{ID: "ram", Materials: []string{"gold", "silver", "copper", "silicon"}, DurationSeconds: 20, RecoveryRate: 0.80, Hazard: HazardMedium},
		{ID: "speakers", Materials: []string{"plastic", "copper", "magnets"}, DurationSeconds: 8, RecoveryRate: 0.85, Hazard: HazardLow},
		{ID: "webcam", Materials: []string{"plastic", "copper", "glass"}, DurationSeconds: 6, RecoveryRate: 0.83, Hazard: HazardLow},
	}
}
