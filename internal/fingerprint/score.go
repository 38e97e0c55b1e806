package fingerprint

// Score sums the weights of every scored field whose value is present and
// identical in both query and candidate. Fields outside the table never
// count.
func Score(query, candidate Signals, weights WeightTable) int {
	total := 0
	for _, field := range weights.fields {
		q, ok := query[field]
		if !ok {
			continue
		}
		c, ok := candidate[field]
		if !ok || q != c {
			continue
		}
		total += weights.weights[field]
	}
	return total
}
