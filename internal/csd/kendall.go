package csd

// KendallTau computes Kendall's tau of the last lookback values against time.
// Pairs are concordant when later values are higher, discordant when lower;
// ties count as neither. Returns 0 when fewer than lookback values exist.
func KendallTau(values []float64, lookback int) float64 {
	if lookback < 2 || len(values) < lookback {
		return 0
	}

	recent := values[len(values)-lookback:]
	n := len(recent)

	concordant := 0
	discordant := 0
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			switch diff := recent[j] - recent[i]; {
			case diff > 0:
				concordant++
			case diff < 0:
				discordant++
			}
		}
	}

	pairs := float64(n*(n-1)) / 2
	return float64(concordant-discordant) / pairs
}
