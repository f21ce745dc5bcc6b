package reshape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
)

func wideFixture() [][]string {
	// Two variants, merged-cell outer header: the variant label appears only
	// above the first column of its pair.
	return [][]string{
		{"Timestamp", "101", "", "202.0", ""},
		{"", "Status", "Inventory", "Status", "Inventory"},
		{"2026-08-01 09:00:00", "Active", "10", "active", "0"},
		{"2026-08-02 09:00:00", "active", "0", "active", "5"},
		{"2026-08-03 09:00:00", "active", "3", "draft", "7"},
	}
}

func TestReshapeCardinality(t *testing.T) {
	obs, err := Reshape(wideFixture())
	require.NoError(t, err)

	// 3 timestamps x 2 variants, one observation per pair.
	require.Len(t, obs, 6)

	type key struct {
		day     time.Time
		variant string
	}
	seen := make(map[key]int)
	for _, o := range obs {
		seen[key{o.Day(), o.VariantID}]++
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, "duplicate observation for %v", k)
	}
}

func TestReshapeCarriesOuterHeaderForward(t *testing.T) {
	obs, err := Reshape(wideFixture())
	require.NoError(t, err)

	variants := make(map[string]bool)
	for _, o := range obs {
		variants[o.VariantID] = true
	}
	// "202.0" normalizes to "202"; the blank outer cells belong to the
	// preceding variant.
	assert.Equal(t, map[string]bool{"101": true, "202": true}, variants)
}

func TestReshapeValues(t *testing.T) {
	obs, err := Reshape(wideFixture())
	require.NoError(t, err)

	byKey := make(map[string]domain.InventoryObservation)
	for _, o := range obs {
		byKey[o.Timestamp.Format("2006-01-02")+"|"+o.VariantID] = o
	}

	first := byKey["2026-08-01|101"]
	assert.Equal(t, "active", first.Status)
	assert.Equal(t, 10.0, first.Inventory)

	second := byKey["2026-08-02|101"]
	assert.Equal(t, 0.0, second.Inventory)

	third := byKey["2026-08-03|202"]
	assert.Equal(t, "draft", third.Status)
	assert.Equal(t, 7.0, third.Inventory)
}

func TestReshapeBadTimestampSurvivesAsZeroTime(t *testing.T) {
	records := wideFixture()
	records = append(records, []string{"not-a-date", "active", "9", "active", "9"})

	obs, err := Reshape(records)
	require.NoError(t, err)
	require.Len(t, obs, 8)

	zeroes := 0
	for _, o := range obs {
		if o.Timestamp.IsZero() {
			zeroes++
		}
	}
	assert.Equal(t, 2, zeroes)
}

func TestReshapeErrors(t *testing.T) {
	_, err := Reshape([][]string{{"Timestamp"}})
	assert.Error(t, err)

	_, err = Reshape([][]string{
		{"101", ""},
		{"Status", "Inventory"},
	})
	assert.Error(t, err, "missing timestamp column")

	_, err = Reshape([][]string{
		{"Timestamp", "101"},
		{"", "SomethingElse"},
	})
	assert.Error(t, err, "no variant columns")
}

func TestFilterByDate(t *testing.T) {
	obs, err := Reshape(wideFixture())
	require.NoError(t, err)

	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
	}

	// Inclusive on both ends.
	filtered := FilterByDate(obs, day(2), day(3))
	require.Len(t, filtered, 4)
	for _, o := range filtered {
		assert.False(t, o.Day().Before(day(2)))
		assert.False(t, o.Day().After(day(3)))
	}

	// Open bounds keep everything with a valid timestamp.
	assert.Len(t, FilterByDate(obs, time.Time{}, time.Time{}), 6)

	// Zero-timestamp observations never pass the filter.
	withBad := append(obs, domain.InventoryObservation{VariantID: "101"})
	assert.Len(t, FilterByDate(withBad, time.Time{}, time.Time{}), 6)
}
