package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierTables_SameIDSets(t *testing.T) {
	free := FreeFeatures()
	premium := PremiumFeatures()

	require.Equal(t, len(free), len(premium))

	freeIDs := make(map[FeatureID]bool)
	for _, f := range free {
		freeIDs[f.ID] = true
	}
	for _, f := range premium {
		assert.True(t, freeIDs[f.ID], "premium feature %s missing from free table", f.ID)
	}
}

func TestTierTables_OrderStable(t *testing.T) {
	free := FreeFeatures()
	premium := PremiumFeatures()
	for i := range free {
		assert.Equal(t, free[i].ID, premium[i].ID, "tables diverge at index %d", i)
	}
}

func TestFreeFeatures_Limits(t *testing.T) {
	free := FreeFeatures()

	bookmarks, ok := FindFeature(free, FeatureBookmarks)
	require.True(t, ok)
	assert.Equal(t, FreeBookmarkLimit, bookmarks.Limit)

	recent, ok := FindFeature(free, FeatureRecentFiles)
	require.True(t, ok)
	assert.Equal(t, FreeLibraryLimit, recent.Limit)

	voices, ok := FindFeature(free, FeaturePremiumVoices)
	require.True(t, ok)
	assert.False(t, voices.Enabled)
}

func TestCheckLimit(t *testing.T) {
	free := FreeFeatures()

	tests := []struct {
		name      string
		id        FeatureID
		usage     int
		allowed   bool
		remaining int
	}{
		{"bookmarks under limit", FeatureBookmarks, 0, true, 3},
		{"bookmarks one left", FeatureBookmarks, 2, true, 1},
		{"bookmarks at limit", FeatureBookmarks, 3, false, 0},
		{"bookmarks over limit", FeatureBookmarks, 5, false, -2},
		{"recent files at limit", FeatureRecentFiles, 5, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := CheckLimit(free, tt.id, tt.usage, false)
			assert.Equal(t, tt.allowed, check.Allowed)
			assert.Equal(t, tt.remaining, check.Remaining)
		})
	}
}

func TestCheckLimit_AllowedMatchesRemaining(t *testing.T) {
	// allowed == (limit - usage > 0) for every known limited feature
	// and every non-negative usage.
	free := FreeFeatures()
	for _, f := range free {
		if f.Limit == LimitUnlimited {
			continue
		}
		for usage := 0; usage <= f.Limit+2; usage++ {
			check := CheckLimit(free, f.ID, usage, false)
			assert.Equal(t, f.Limit-usage > 0, check.Allowed, "feature %s usage %d", f.ID, usage)
		}
	}
}

func TestCheckLimit_UnknownFeature(t *testing.T) {
	check := CheckLimit(FreeFeatures(), "teleportation", 0, false)
	assert.Equal(t, LimitCheck{Allowed: false, Limit: 0, Remaining: 0, IsPremium: false}, check)
}

func TestCheckLimit_Unlimited(t *testing.T) {
	check := CheckLimit(PremiumFeatures(), FeatureBookmarks, 1_000_000, true)
	assert.True(t, check.Allowed)
	assert.Equal(t, LimitUnlimited, check.Limit)
	assert.Equal(t, LimitUnlimited, check.Remaining)
	assert.True(t, check.IsPremium)
}
