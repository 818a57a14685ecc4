package severity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOrder(t *testing.T) {
	for i := 1; i < len(Levels); i++ {
		assert.Greater(t, Levels[i].Rank(), Levels[i-1].Rank(), "%s should outrank %s", Levels[i], Levels[i-1])
	}
	assert.Equal(t, -1, Level("extreme").Rank())
}

func TestMax(t *testing.T) {
	assert.Equal(t, Critical, Max(High, Critical))
	assert.Equal(t, Critical, Max(Critical, Minimal))
	assert.Equal(t, Moderate, Max(Moderate, Moderate))
	assert.Equal(t, Low, Max(Level(""), Low))
}

func TestAtLeast(t *testing.T) {
	assert.True(t, High.AtLeast(High))
	assert.True(t, Critical.AtLeast(Moderate))
	assert.False(t, Low.AtLeast(Moderate))
}

func TestParse(t *testing.T) {
	l, err := Parse(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, High, l)

	_, err = Parse("severe")
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	var v struct {
		Level Level `json:"level"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"level":"Critical"}`), &v))
	assert.Equal(t, Critical, v.Level)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"critical"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"level":"bad"}`), &v))
}
