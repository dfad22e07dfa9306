package catalog

import (
	"math"
	"sort"
	"strings"
)

// Part is one constituent of a category composition.
type Part struct {
	Material string
	Percent  int
	Hazard   int
}

// Composition is the percentage breakdown of a category and its weighted
// hazard score (0-100).
type Composition struct {
	Category    string
	Parts       []Part
	HazardScore float64
}

// compositionTable maps category keys to percentage compositions. hard_drive is
// an alias for hdd.
var compositionTable = map[string][]Part{
	"webcam":      {{Material: "Plastic", Percent: 45}, {Material: "Glass", Percent: 25}, {Material: "Metal", Percent: 20}, {Material: "Silicon", Percent: 10}},
	"speakers":    {{Material: "Plastic", Percent: 35}, {Material: "Metal", Percent: 30}, {Material: "Magnets", Percent: 20}, {Material: "Rubber", Percent: 15}},
	"ram":         {{Material: "Silicon", Percent: 35}, {Material: "Fiberglass", Percent: 25}, {Material: "Plastic", Percent: 25}, {Material: "Metal", Percent: 15}},
	"mouse":       {{Material: "Plastic", Percent: 50}, {Material: "Circuit Board", Percent: 25}, {Material: "Metal", Percent: 15}, {Material: "Rubber", Percent: 10}},
	"motherboard": {{Material: "Fiberglass", Percent: 35}, {Material: "Copper", Percent: 25}, {Material: "Plastic", Percent: 25}, {Material: "Silicon", Percent: 15}},
	"monitor":     {{Material: "Glass", Percent: 40}, {Material: "Plastic", Percent: 30}, {Material: "Metal", Percent: 20}, {Material: "Liquid Crystal", Percent: 10}},
	"microphone":  {{Material: "Plastic", Percent: 40}, {Material: "Metal", Percent: 30}, {Material: "Electronics", Percent: 20}, {Material: "Rubber", Percent: 10}},
	"laptop":      {{Material: "Aluminium", Percent: 30}, {Material: "Plastic", Percent: 25}, {Material: "Copper", Percent: 20}, {Material: "Glass", Percent: 15}, {Material: "Silicon", Percent: 10}},
	"keyboard":    {{Material: "Plastic", Percent: 45}, {Material: "Electronics", Percent: 25}, {Material: "Metal", Percent: 20}, {Material: "Rubber", Percent: 10}},
	"headset":     {{Material: "Plastic", Percent: 35}, {Material: "Metal", Percent: 20}, {Material: "Electronics", Percent: 20}, {Material: "Foam", Percent: 15}, {Material: "Rubber", Percent: 10}},
	"hdd":         {{Material: "Aluminium", Percent: 35}, {Material: "Electronics", Percent: 25}, {Material: "Magnetic Material", Percent: 25}, {Material: "Glass", Percent: 15}},
	"gpu":         {{Material: "Silicon", Percent: 35}, {Material: "Copper", Percent: 25}, {Material: "Aluminium", Percent: 25}, {Material: "Plastic", Percent: 15}},
	"cpu_coolers": {{Material: "Aluminium", Percent: 40}, {Material: "Copper", Percent: 30}, {Material: "Fan Blades", Percent: 20}, {Material: "Plastic", Percent: 10}},
	"cpu":         {{Material: "Silicon", Percent: 40}, {Material: "Copper", Percent: 25}, {Material: "Aluminium", Percent: 20}, {Material: "Gold", Percent: 15}},
	"case":        {{Material: "Steel", Percent: 40}, {Material: "Aluminium", Percent: 30}, {Material: "Plastic", Percent: 20}, {Material: "Glass", Percent: 10}},
	"cables":      {{Material: "Copper", Percent: 50}, {Material: "Plastic", Percent: 35}, {Material: "Rubber", Percent: 15}},
	"battery":     {{Material: "Lithium", Percent: 30}, {Material: "Metal Casing", Percent: 25}, {Material: "Cobalt", Percent: 25}, {Material: "Graphite", Percent: 20}},
}

var compositionAliases = map[string]string{
	"hard_drive": "hdd",
}

var materialHazard = map[string]int{
	"Plastic": 40, "Glass": 10, "Metal": 30, "Silicon": 20, "Liquid Crystal": 50,
	"Electronics": 60, "Aluminium": 20, "Copper": 25, "Gold": 15, "Steel": 30,
	"Foam": 5, "Rubber": 20, "Lithium": 80, "Cobalt": 90, "Graphite": 15,
	"Magnetic Material": 35, "Metal Casing": 30, "Fan Blades": 10, "Circuit Board": 50,
	"Fiberglass": 25, "Magnets": 40,
}

// LookupComposition returns the percentage composition for category. Lookup is
// case-insensitive and treats spaces as underscores. Unknown categories return
// false.
func LookupComposition(category string) (Composition, bool) {
	key := normalizeID(category)
	if alias, ok := compositionAliases[key]; ok {
		key = alias
	}
	parts, ok := compositionTable[key]
	if !ok {
		return Composition{Category: strings.TrimSpace(category)}, false
	}
	out := Composition{Category: key, Parts: make([]Part, len(parts))}
	score := 0.0
	for i, part := range parts {
		part.Hazard = materialHazard[part.Material]
		out.Parts[i] = part
		score += float64(part.Percent*part.Hazard) / 100.0
	}
	out.HazardScore = math.Round(score*100) / 100
	return out, true
}

// CompositionKeys returns every key accepted by LookupComposition, aliases
// included.
func CompositionKeys() []string {
	keys := make([]string, 0, len(compositionTable)+len(compositionAliases))
	for k := range compositionTable {
		keys = append(keys, k)
	}
	for k := range compositionAliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
