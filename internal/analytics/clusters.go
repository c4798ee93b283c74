package analytics

import (
	"sort"
	"strings"

	"CompetitorScanner/internal/domain"
)

const (
	tierAccountLimit    = 10
	tierTopTypeLimit    = 3
	influencerFollowers = 100_000

	// BasisFollowers and BasisEngagement name the two clustering modes.
	BasisFollowers  = "followers"
	BasisEngagement = "engagement"
)

type tierBand struct {
	label string
	min   float64
}

// Audience-size bands, richest first.
var followerBands = []tierBand{
	{"Mega (1M+)", 1_000_000},
	{"Top (500K-1M)", 500_000},
	{"Macro (50K-500K)", 50_000},
	{"Mid (10K-50K)", 10_000},
	{"Micro (1K-10K)", 1_000},
	{"Nano (<1K)", 0},
}

// Fallback bands for candidate sets without any usable follower count.
var engagementBands = []tierBand{
	{"High Engagement (500+)", 500},
	{"Medium Engagement (100-500)", 100},
	{"Low Engagement (<100)", 0},
}

// FollowerTier maps a follower count onto its audience-size band.
func FollowerTier(count int64) string {
	return bandFor(float64(count), followerBands)
}

func bandFor(value float64, bands []tierBand) string {
	for _, band := range bands {
		if value >= band.min {
			return band.label
		}
	}
	return bands[len(bands)-1].label
}

// AccountType guesses the kind of account behind a username. Substring cues
// win over profile numbers; verified accounts with a large audience read as
// influencers; everything else is a personal brand.
func AccountType(c domain.Competitor) string {
	name := strings.ToLower(c.Username)
	switch {
	case strings.Contains(name, "official"), strings.Contains(name, "news"), strings.Contains(name, "media"):
		return "Media/Official"
	case strings.Contains(name, "ceo"), strings.Contains(name, "founder"):
		return "Founder/Executive"
	case c.Verified && c.FollowerCount != nil && *c.FollowerCount >= influencerFollowers:
		return "Influencer"
	default:
		return "Personal Brand"
	}
}

func meanEngagement(c domain.Competitor) float64 {
	if len(c.Posts) == 0 {
		return 0
	}
	var total int64
	for _, p := range c.Posts {
		total += Score(p)
	}
	return float64(total) / float64(len(c.Posts))
}

// Clusters groups competitors into tiers. Follower bands apply when at least
// one competitor has a known positive count; otherwise the whole set falls
// back to engagement bands over mean post engagement. Unknown counts band as
// Nano under the follower basis.
func Clusters(competitors []domain.Competitor) domain.ClusterReport {
	basis := BasisEngagement
	bands := engagementBands
	for _, c := range competitors {
		if c.FollowerCount != nil && *c.FollowerCount > 0 {
			basis = BasisFollowers
			bands = followerBands
			break
		}
	}

	grouped := make(map[string][]domain.TierAccount, len(bands))
	for _, c := range competitors {
		engagement := meanEngagement(c)
		metric := engagement
		if basis == BasisFollowers {
			metric = float64(knownCount(c.FollowerCount))
		}
		label := bandFor(metric, bands)
		grouped[label] = append(grouped[label], domain.TierAccount{
			Username:      c.Username,
			FollowerCount: c.FollowerCount,
			AvgEngagement: engagement,
			AccountType:   AccountType(c),
		})
	}

	tiers := make([]domain.TierSummary, 0, len(bands))
	for _, band := range bands {
		members := grouped[band.label]
		if len(members) == 0 {
			continue
		}
		tiers = append(tiers, summarizeTier(band.label, members, basis))
	}
	return domain.ClusterReport{Basis: basis, Tiers: tiers}
}

func summarizeTier(label string, members []domain.TierAccount, basis string) domain.TierSummary {
	var followerSum, engagementSum float64
	known := 0
	typeCount := map[string]int{}
	for _, m := range members {
		if m.FollowerCount != nil {
			followerSum += float64(*m.FollowerCount)
			known++
		}
		engagementSum += m.AvgEngagement
		typeCount[m.AccountType]++
	}

	avgFollowers := 0.0
	if known > 0 {
		avgFollowers = followerSum / float64(known)
	}

	sort.SliceStable(members, func(a, b int) bool {
		if basis == BasisFollowers {
			return knownCount(members[a].FollowerCount) > knownCount(members[b].FollowerCount)
		}
		return members[a].AvgEngagement > members[b].AvgEngagement
	})
	top := members
	if len(top) > tierAccountLimit {
		top = top[:tierAccountLimit]
	}

	return domain.TierSummary{
		Tier:            label,
		Count:           len(members),
		AvgFollowers:    avgFollowers,
		AvgEngagement:   engagementSum / float64(len(members)),
		TopAccountTypes: topTypes(typeCount, tierTopTypeLimit),
		Accounts:        top,
	}
}

func knownCount(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func topTypes(counts map[string]int, limit int) []string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(a, b int) bool {
		if counts[types[a]] != counts[types[b]] {
			return counts[types[a]] > counts[types[b]]
		}
		return types[a] < types[b]
	})
	if len(types) > limit {
		types = types[:limit]
	}
	return types
}
