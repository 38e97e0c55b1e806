package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func browserWeights() WeightTable {
	return MustWeightTable(map[string]int{"useragent": 10, "gpu": 10, "language": 3})
}

func TestNewWeightTable(t *testing.T) {
	w, err := NewWeightTable(map[string]int{"b": 2, "a": 5, "c": 0})
	require.NoError(t, err)
	assert.Equal(t, 7, w.MaxScore())
	assert.Equal(t, []string{"a", "b", "c"}, w.Fields())
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 5, w.Weight("a"))
	assert.Equal(t, 0, w.Weight("missing"))

	_, err = NewWeightTable(map[string]int{"a": -1})
	assert.Error(t, err)

	_, err = NewWeightTable(map[string]int{"": 1})
	assert.Error(t, err)
}

func TestWeightTableIsImmutable(t *testing.T) {
	src := map[string]int{"a": 1}
	w := MustWeightTable(src)
	src["a"] = 100
	src["b"] = 100

	assert.Equal(t, 1, w.MaxScore())
	fields := w.Fields()
	fields[0] = "mutated"
	assert.Equal(t, []string{"a"}, w.Fields())
}

func TestBuiltinProfiles(t *testing.T) {
	for _, name := range []string{"standard", "lenient"} {
		p, ok := LookupProfile(name)
		require.True(t, ok, name)

		w, err := NewWeightTable(p.Weights)
		require.NoError(t, err)

		sum := 0
		for _, v := range p.Weights {
			sum += v
		}
		assert.Equal(t, sum, w.MaxScore())
		_, err = NewMatching(w, p.Threshold)
		assert.NoError(t, err)
	}

	_, ok := LookupProfile("unknown")
	assert.False(t, ok)

	p, _ := LookupProfile("standard")
	p.Weights["useragent"] = 0
	assert.Equal(t, 10, StandardProfile.Weights["useragent"])
}

func TestScore(t *testing.T) {
	w := browserWeights()
	query := Signals{"useragent": "UA1", "gpu": "G1", "language": "en"}

	assert.Equal(t, 20, Score(query, Signals{"useragent": "UA1", "gpu": "G1", "language": "fr"}, w))
	assert.Equal(t, 10, Score(query, Signals{"useragent": "UA1", "gpu": "G2", "language": "fr"}, w))
	assert.Equal(t, 23, Score(query, query, w))
	assert.Equal(t, 0, Score(query, Signals{}, w))
	assert.Equal(t, 0, Score(Signals{}, query, w))
}

func TestScoreIgnoresUnweightedFields(t *testing.T) {
	w := browserWeights()
	query := Signals{"useragent": "UA1", "extra1": "x", "extra2": "y"}
	cand := Signals{"useragent": "UA1", "extra1": "x", "extra2": "y"}

	assert.Equal(t, 10, Score(query, cand, w))
}

func TestScoreIsCaseSensitive(t *testing.T) {
	w := browserWeights()
	assert.Equal(t, 0, Score(Signals{"gpu": "G1"}, Signals{"gpu": "g1"}, w))
	assert.Equal(t, 0, Score(Signals{"gpu": "G1"}, Signals{"GPU": "G1"}, w))
}

func TestScoreFieldMissingOnOneSide(t *testing.T) {
	w := browserWeights()
	// An empty value is still a value; absence is not.
	assert.Equal(t, 3, Score(Signals{"language": ""}, Signals{"language": ""}, w))
	assert.Equal(t, 0, Score(Signals{"language": ""}, Signals{}, w))
}

func TestScoreIsSymmetric(t *testing.T) {
	w := browserWeights()
	pairs := [][2]Signals{
		{{"useragent": "UA1", "gpu": "G1"}, {"useragent": "UA1", "gpu": "G2", "language": "en"}},
		{{"language": "en"}, {"language": "en", "useragent": "UA9"}},
		{{}, {"gpu": "G1"}},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1], w), Score(p[1], p[0], w))
	}
}

func TestScoreContributionBoundedByWeight(t *testing.T) {
	w := browserWeights()
	query := Signals{"useragent": "UA1", "gpu": "G1", "language": "en"}
	for _, field := range w.Fields() {
		single := Signals{field: query[field]}
		assert.LessOrEqual(t, Score(query, single, w), w.Weight(field))
	}
	assert.LessOrEqual(t, Score(query, query, w), w.MaxScore())
}

func TestScoreMonotonicInWeight(t *testing.T) {
	query := Signals{"useragent": "UA1", "gpu": "G1"}
	matching := Signals{"useragent": "UA1", "gpu": "G2"}
	other := Signals{"useragent": "UA2", "gpu": "G2"}

	low := MustWeightTable(map[string]int{"useragent": 5, "gpu": 10})
	high := MustWeightTable(map[string]int{"useragent": 9, "gpu": 10})

	assert.GreaterOrEqual(t, Score(query, matching, high), Score(query, matching, low))
	assert.Equal(t, Score(query, other, low), Score(query, other, high))
}
