package plate

// Distance returns the Levenshtein edit distance between a and b.
// OCR confuses single characters (O/0, B/8), so a small distance still
// identifies the same plate.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	n, m := len(ra), len(rb)

	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}

	// Two rows of the (n+1) x (m+1) cost matrix are enough.
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[m]
}
