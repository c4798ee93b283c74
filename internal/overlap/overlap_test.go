package overlap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"CompetitorScanner/internal/domain"
)

func TestComputeSharedFollowing(t *testing.T) {
	t.Parallel()

	target := domain.NewIdentifierSet([]string{"a", "b", "c", "d"})
	candidate := domain.NewIdentifierSet([]string{"a", "b", "e"})

	result := Compute(target, candidate)

	assert.Equal(t, 2, result.OverlapCount)
	assert.Equal(t, 50.0, result.OverlapPercentage)
	assert.Equal(t, []string{"a", "b"}, result.CommonAccounts)
}

func TestComputeEmptyTarget(t *testing.T) {
	t.Parallel()

	result := Compute(domain.IdentifierSet{}, domain.NewIdentifierSet([]string{"a"}))

	assert.Equal(t, 0, result.OverlapCount)
	assert.Equal(t, 0.0, result.OverlapPercentage)
	assert.Empty(t, result.CommonAccounts)
}

func TestComputeDisjointSets(t *testing.T) {
	t.Parallel()

	target := domain.NewIdentifierSet([]string{"a", "b"})
	candidate := domain.NewIdentifierSet([]string{"x", "y"})

	result := Compute(target, candidate)

	assert.Equal(t, 0, result.OverlapCount)
	assert.Equal(t, 0.0, result.OverlapPercentage)
	assert.Empty(t, result.CommonAccounts)
}

func TestComputeRoundsToOneDecimal(t *testing.T) {
	t.Parallel()

	target := domain.NewIdentifierSet([]string{"a", "b", "c"})
	candidate := domain.NewIdentifierSet([]string{"a"})

	result := Compute(target, candidate)

	assert.Equal(t, 33.3, result.OverlapPercentage)
}

func TestComputePercentageBounds(t *testing.T) {
	t.Parallel()

	target := domain.NewIdentifierSet([]string{"a", "b", "c", "d"})
	result := Compute(target, target)

	assert.Equal(t, 4, result.OverlapCount)
	assert.Equal(t, 100.0, result.OverlapPercentage)
}

func TestComputeCapsCommonAccounts(t *testing.T) {
	t.Parallel()

	handles := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		handles = append(handles, fmt.Sprintf("acct%03d", i))
	}
	target := domain.NewIdentifierSet(handles)

	result := Compute(target, target)

	assert.Equal(t, 120, result.OverlapCount)
	assert.Equal(t, 100.0, result.OverlapPercentage)
	assert.Len(t, result.CommonAccounts, 50)
	assert.True(t, sortedStrings(result.CommonAccounts))
}

func sortedStrings(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}
