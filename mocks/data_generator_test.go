package mocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Symbol = "600000"
	config.Count = 100

	data := gen.Generate(config)
	require.Len(t, data, config.Count)

	for i, bar := range data {
		assert.Equal(t, "600000", bar.Symbol)
		assert.GreaterOrEqual(t, bar.High, bar.Open, "index %d", i)
		assert.GreaterOrEqual(t, bar.High, bar.Close, "index %d", i)
		assert.LessOrEqual(t, bar.Low, bar.Open, "index %d", i)
		assert.LessOrEqual(t, bar.Low, bar.Close, "index %d", i)
		assert.Positive(t, bar.Volume)

		if i > 0 {
			assert.Equal(t, data[i-1].Time.AddDate(0, 0, 1), bar.Time)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()
	config.Count = 10

	data1 := NewDataGenerator(42).Generate(config)
	data2 := NewDataGenerator(42).Generate(config)

	assert.Equal(t, data1, data2)
}

func TestDataGenerator_Different_Seeds(t *testing.T) {
	config := DefaultConfig()
	config.Count = 10

	data1 := NewDataGenerator(42).Generate(config)
	data2 := NewDataGenerator(123).Generate(config)

	assert.NotEqual(t, data1[len(data1)-1].Close, data2[len(data2)-1].Close)
}

func TestGenerateMultiSymbol(t *testing.T) {
	config := DefaultConfig()
	config.Count = 20

	data := NewDataGenerator(7).GenerateMultiSymbol([]string{"600000", "000001"}, config)
	require.Len(t, data, 40)
	assert.Equal(t, "600000", data[0].Symbol)
	assert.Equal(t, "000001", data[20].Symbol)
}

func TestGenerateDaily(t *testing.T) {
	data := GenerateDaily("600519", 250)
	require.Len(t, data, 250)
	assert.Equal(t, DefaultConfig().StartTime, data[0].Time)
}

func TestTrendingAndFromCloses(t *testing.T) {
	bars := Trending("X", 10, 0.5, 4)
	require.Len(t, bars, 4)
	assert.Equal(t, 11.5, bars[3].Close)

	bars = FromCloses("X", []float64{3, 2, 1})
	require.Len(t, bars, 3)
	assert.Equal(t, 1.0, bars[2].Low)
	assert.True(t, bars[1].Time.After(bars[0].Time))
}
