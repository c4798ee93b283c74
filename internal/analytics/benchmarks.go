package analytics

import (
	"math"
	"sort"

	"CompetitorScanner/internal/domain"
)

// percentile returns the p-quantile of values using linear interpolation
// between adjacent ranks of the sorted sequence. Empty input yields 0.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	k := float64(len(sorted)-1) * p
	lower := int(math.Floor(k))
	upper := int(math.Ceil(k))
	if lower == upper {
		return sorted[lower]
	}
	frac := k - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func metricBenchmark(values []float64) domain.MetricBenchmark {
	return domain.MetricBenchmark{
		Average: average(values),
		Goals: domain.EngagementGoals{
			Beginner:     percentile(values, 0.25),
			Intermediate: percentile(values, 0.50),
			Advanced:     percentile(values, 0.75),
			Expert:       percentile(values, 0.90),
		},
	}
}

// Benchmarks computes averages and percentile goals for every engagement
// counter over all posts of all competitors.
func Benchmarks(competitors []domain.Competitor) domain.BenchmarkReport {
	var likes, retweets, replies, views []float64
	for _, c := range competitors {
		for _, p := range c.Posts {
			likes = append(likes, float64(p.Likes))
			retweets = append(retweets, float64(p.Retweets))
			replies = append(replies, float64(p.Replies))
			views = append(views, float64(p.Views))
		}
	}
	return domain.BenchmarkReport{
		PostCount: len(likes),
		Likes:     metricBenchmark(likes),
		Retweets:  metricBenchmark(retweets),
		Replies:   metricBenchmark(replies),
		Views:     metricBenchmark(views),
	}
}
