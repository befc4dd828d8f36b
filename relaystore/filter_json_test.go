package relaystore_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nostrkit/relay-eventstore-go/relaystore"
)

func Test_Filter_UnmarshalJSON_WireShape(t *testing.T) {
	wire := `{
		"ids": ["abcd"],
		"authors": ["0123456789abcdef"],
		"kinds": [1, 7],
		"since": 1700000000,
		"until": 1700003600,
		"limit": 20,
		"#e": ["ab"],
		"#p": ["cd", "ef"]
	}`

	var filter relaystore.Filter
	require.NoError(t, json.Unmarshal([]byte(wire), &filter))

	assert.Equal(t, []string{"abcd"}, filter.IDs)
	assert.Equal(t, []string{"0123456789abcdef"}, filter.Authors)
	assert.Equal(t, []int{1, 7}, filter.Kinds)

	require.NotNil(t, filter.Since)
	assert.Equal(t, int64(1700000000), *filter.Since)
	require.NotNil(t, filter.Until)
	assert.Equal(t, int64(1700003600), *filter.Until)
	require.NotNil(t, filter.Limit)
	assert.Equal(t, uint(20), *filter.Limit)

	assert.Equal(t, relaystore.TagFilters{"e": {"ab"}, "p": {"cd", "ef"}}, filter.Tags)
}

func Test_Filter_UnmarshalJSON_AbsentVersusEmpty(t *testing.T) {
	t.Run("absent_fields_stay_nil", func(t *testing.T) {
		var filter relaystore.Filter
		require.NoError(t, json.Unmarshal([]byte(`{}`), &filter))

		assert.Nil(t, filter.IDs)
		assert.Nil(t, filter.Authors)
		assert.Nil(t, filter.Kinds)
		assert.Nil(t, filter.Since)
		assert.Nil(t, filter.Until)
		assert.Nil(t, filter.Limit)
		assert.Nil(t, filter.Tags)
	})

	t.Run("zero_limit_stays_present", func(t *testing.T) {
		var filter relaystore.Filter
		require.NoError(t, json.Unmarshal([]byte(`{"limit": 0}`), &filter))

		require.NotNil(t, filter.Limit)
		assert.Equal(t, uint(0), *filter.Limit)
	})

	t.Run("empty_arrays_become_non_nil_empty_sets", func(t *testing.T) {
		var filter relaystore.Filter
		require.NoError(t, json.Unmarshal([]byte(`{"authors": [], "kinds": [], "#e": []}`), &filter))

		assert.NotNil(t, filter.Authors)
		assert.Empty(t, filter.Authors)
		assert.NotNil(t, filter.Kinds)
		assert.Empty(t, filter.Kinds)

		values, exists := filter.Tags["e"]
		assert.True(t, exists)
		assert.Empty(t, values)
	})
}

func Test_Filter_UnmarshalJSON_UnknownKeysAreIgnored(t *testing.T) {
	wire := `{"kinds": [1], "search": "needle", "#invalid": ["x"], "#": ["y"]}`

	var filter relaystore.Filter
	require.NoError(t, json.Unmarshal([]byte(wire), &filter))

	assert.Equal(t, []int{1}, filter.Kinds)
	assert.Nil(t, filter.Tags)
}

func Test_Filter_MarshalJSON_RoundTrip(t *testing.T) {
	since := int64(1700000000)
	limit := uint(10)

	original := relaystore.Filter{
		Authors: []string{"abcd"},
		Kinds:   []int{1},
		Since:   &since,
		Limit:   &limit,
		Tags:    relaystore.TagFilters{"e": {"0123"}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"#e":["0123"]`)
	assert.NotContains(t, string(data), `"ids"`)

	var decoded relaystore.Filter
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}
