package overlap

import (
	"math"
	"sort"

	"CompetitorScanner/internal/domain"
)

// maxCommonAccounts caps the sample of shared handles carried on a result.
const maxCommonAccounts = 50

// Compute returns intersection statistics between the target's following set
// and a candidate's following set. The percentage denominator is always the
// target's set size: the measure is "what fraction of who I follow does this
// candidate also follow", not symmetric set similarity.
func Compute(target, candidate domain.IdentifierSet) domain.OverlapResult {
	if len(target) == 0 {
		return domain.OverlapResult{CommonAccounts: []string{}}
	}

	common := make([]string, 0)
	for handle := range target {
		if candidate.Contains(handle) {
			common = append(common, handle)
		}
	}
	sort.Strings(common)

	count := len(common)
	percentage := round1(float64(count) / float64(len(target)) * 100)

	if len(common) > maxCommonAccounts {
		common = common[:maxCommonAccounts]
	}

	return domain.OverlapResult{
		OverlapCount:      count,
		OverlapPercentage: percentage,
		CommonAccounts:    common,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
