package cvss

// All returns every valid base selection, 2,592 in total, ordered by the
// catalog's option order with the last metric varying fastest.
func All() []Selection {
	total := 1
	for _, m := range BaseMetrics {
		total *= len(catalog[m].options)
	}

	out := make([]Selection, 0, total)
	idx := make([]int, numMetrics)
	for {
		sel := make(Selection, numMetrics)
		for i, m := range BaseMetrics {
			sel[m] = catalog[m].options[idx[i]].Code
		}
		out = append(out, sel)

		i := numMetrics - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(catalog[BaseMetrics[i]].options) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}
