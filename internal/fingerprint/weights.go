package fingerprint

import (
	"fmt"
	"sort"
)

// WeightTable assigns a non-negative weight to each scored field.
// It is immutable once built; MaxScore always equals the sum of the weights.
type WeightTable struct {
	weights  map[string]int
	fields   []string
	maxScore int
}

// NewWeightTable copies weights into an immutable table.
func NewWeightTable(weights map[string]int) (WeightTable, error) {
	t := WeightTable{
		weights: make(map[string]int, len(weights)),
		fields:  make([]string, 0, len(weights)),
	}
	for field, w := range weights {
		if field == "" {
			return WeightTable{}, fmt.Errorf("weight table: empty field name")
		}
		if w < 0 {
			return WeightTable{}, fmt.Errorf("weight table: field %q has negative weight %d", field, w)
		}
		t.weights[field] = w
		t.fields = append(t.fields, field)
		t.maxScore += w
	}
	sort.Strings(t.fields)
	return t, nil
}

// MustWeightTable is NewWeightTable for static tables known to be valid.
func MustWeightTable(weights map[string]int) WeightTable {
	t, err := NewWeightTable(weights)
	if err != nil {
		panic(err)
	}
	return t
}

// MaxScore is the score of a candidate matching on every weighted field.
func (t WeightTable) MaxScore() int {
	return t.maxScore
}

// Weight returns the weight of field, or 0 when the field is not scored.
func (t WeightTable) Weight(field string) int {
	return t.weights[field]
}

// Fields returns the scored field names in sorted order.
func (t WeightTable) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

// Len reports how many fields are scored.
func (t WeightTable) Len() int {
	return len(t.fields)
}

// Profile is a named weight table plus the threshold fraction it was tuned for.
type Profile struct {
	Name      string
	Weights   map[string]int
	Threshold float64
}

// Built-in profiles. Deployments have used both field sets; neither is
// authoritative, so the active one is chosen in configuration.
var (
	StandardProfile = Profile{
		Name: "standard",
		Weights: map[string]int{
			"useragent":           10,
			"gpu":                 10,
			"canvas":              8,
			"webgl":               8,
			"screen":              5,
			"timezone":            4,
			"platform":            4,
			"hardwareconcurrency": 3,
			"devicememory":        3,
			"language":            3,
			"colordepth":          2,
		},
		Threshold: 0.7,
	}

	LenientProfile = Profile{
		Name: "lenient",
		Weights: map[string]int{
			"useragent":           10,
			"gpu":                 10,
			"canvas":              6,
			"webgl":               6,
			"audio":               5,
			"fonts":               5,
			"screen":              4,
			"timezone":            4,
			"platform":            3,
			"hardwareconcurrency": 3,
			"devicememory":        3,
			"language":            3,
			"languages":           2,
			"colordepth":          2,
			"touchsupport":        2,
			"cookies":             1,
		},
		Threshold: 0.6,
	}
)

// LookupProfile returns a copy of the named built-in profile.
func LookupProfile(name string) (Profile, bool) {
	var p Profile
	switch name {
	case StandardProfile.Name:
		p = StandardProfile
	case LenientProfile.Name:
		p = LenientProfile
	default:
		return Profile{}, false
	}
	weights := make(map[string]int, len(p.Weights))
	for k, v := range p.Weights {
		weights[k] = v
	}
	p.Weights = weights
	return p, true
}
