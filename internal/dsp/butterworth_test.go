package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiltFilt_AttenuatesHighFrequencyNoise(t *testing.T) {
	const fs = 125.0
	n := 1000
	data := make([]float64, n)
	for i := range data {
		t := float64(i) / fs
		// 1 Hz signal of interest plus 40 Hz noise, well above a 20 Hz cutoff.
		data[i] = math.Sin(2*math.Pi*1*t) + 0.5*math.Sin(2*math.Pi*40*t)
	}

	cascade := NewButterworthLowpass(20.0, fs)
	filtered := FiltFilt(cascade, data)

	require_noiseReduced(t, data, filtered, fs)
}

func require_noiseReduced(t *testing.T, raw, filtered []float64, fs float64) {
	t.Helper()
	rawEnergy := highFreqEnergy(raw, fs)
	filteredEnergy := highFreqEnergy(filtered, fs)
	assert.Less(t, filteredEnergy, rawEnergy*0.5, "high frequency energy should be substantially reduced")
}

// highFreqEnergy is a crude proxy: mean squared sample-to-sample
// difference, which is dominated by high-frequency content.
func highFreqEnergy(x []float64, fs float64) float64 {
	var sum float64
	for i := 1; i < len(x); i++ {
		d := x[i] - x[i-1]
		sum += d * d
	}
	return sum / float64(len(x)-1)
}

func TestFiltFilt_ConstantSignalPassesThroughUnchanged(t *testing.T) {
	data := make([]float64, 300)
	for i := range data {
		data[i] = 9.81
	}
	cascade := NewButterworthLowpass(20.0, 125.0)
	out := FiltFilt(cascade, data)
	require_len(t, out, len(data))
	for i, v := range out {
		assert.InDelta(t, 9.81, v, 1e-6, "index %d", i)
	}
}

func require_len(t *testing.T, out []float64, n int) {
	t.Helper()
	assert.Len(t, out, n)
}

func TestFilterBank_CachesByCutoff(t *testing.T) {
	fb := NewFilterBank(125.0)
	a := fb.Lowpass(6.0)
	b := fb.Lowpass(6.0)
	assert.Equal(t, a, b)
	c := fb.Lowpass(12.0)
	assert.NotEqual(t, a, c)
}
