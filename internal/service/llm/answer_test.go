package llm

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"integer", `85`, 85},
		{"float", `85.5`, 85.5},
		{"string", `"72"`, 72},
		{"percent", `"64%"`, 64},
		{"null", `null`, 0},
		{"garbage", `"high"`, 0},
		{"nan", `"NaN"`, 0},
		{"inf", `"Inf"`, 0},
		{"negative infinity", `"-Infinity"`, 0},
		{"plus infinity", `"+infinity"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n number
			require.NoError(t, json.Unmarshal([]byte(tt.in), &n))
			assert.Equal(t, tt.want, float64(n))
		})
	}
}

func TestClampNaN(t *testing.T) {
	assert.Equal(t, 0.0, clamp(math.NaN(), 0, 100))
	assert.Equal(t, 100.0, clamp(math.Inf(1), 0, 100))
	assert.Equal(t, 0.0, clamp(math.Inf(-1), 0, 100))
}

func TestNonFiniteAnswerStillMarshals(t *testing.T) {
	var a clusterAnswer
	raw := `{"pump_probability":"NaN","coordination_score":"Inf","asset_mentions":{"GME":"-Infinity"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &a))

	m := a.model()
	assert.Equal(t, 0.0, m.PumpProbability)
	assert.Equal(t, 0.0, m.CoordinationScore)
	assert.Equal(t, 0, m.AssetMentions["GME"])

	_, err := json.Marshal(m)
	require.NoError(t, err)

	var p platformAnswer
	require.NoError(t, json.Unmarshal([]byte(`{"coordination_level":"nan","confidence":"Infinity"}`), &p))
	_, err = json.Marshal(p.model())
	require.NoError(t, err)
}
