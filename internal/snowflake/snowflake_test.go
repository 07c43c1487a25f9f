package snowflake

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  ID
	}{
		{name: "typical channel id", input: "768594508287311882", want: 768594508287311882},
		{name: "zero", input: "0", want: 0},
		{name: "max uint64", input: "18446744073709551615", want: math.MaxUint64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
			assert.Equal(t, tc.input, id.String())
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "wumpus", "-5", "12.5", "18446744073709551616"} {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestInt64RoundTripIsLossless(t *testing.T) {
	testCases := []struct {
		name string
		id   ID
	}{
		{name: "small", id: 42},
		{name: "typical", id: 302094807046684672},
		{name: "high bit set", id: 1<<63 + 12345},
		{name: "max", id: math.MaxUint64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.id, FromInt64(tc.id.Int64()))
		})
	}

	// IDs above the signed range must land in negative territory rather
	// than saturating.
	assert.Negative(t, ID(1<<63+12345).Int64())
}

func TestJSONFormats(t *testing.T) {
	var id ID

	require.NoError(t, json.Unmarshal([]byte(`"768594508287311882"`), &id))
	assert.Equal(t, ID(768594508287311882), id)

	require.NoError(t, json.Unmarshal([]byte(`12345`), &id))
	assert.Equal(t, ID(12345), id)

	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.True(t, id.IsZero())

	out, err := json.Marshal(ID(768594508287311882))
	require.NoError(t, err)
	assert.Equal(t, `"768594508287311882"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"wumpus"`), &id))
}
