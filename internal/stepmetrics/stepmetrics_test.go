package stepmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

func syntheticOrientation(n int) []gaitmodel.OrientationSample {
	out := make([]gaitmodel.OrientationSample, n)
	for i := range out {
		out[i] = gaitmodel.OrientationSample{
			ThighPitch:  float64(i) * 0.1,
			ShankPitch:  float64(i) * 0.05,
			KneeAngle:   float64(i) * 0.1 - float64(i)*0.05,
			VerticalAcc: 0.1,
		}
	}
	return out
}

func TestCompute_KneeCurveHasExactly100Points(t *testing.T) {
	orient := syntheticOrientation(150)
	gyro := make([]float64, 150)
	cycles := []gaitmodel.GaitCycle{
		{HSIdx: 10, TOIdx: 40, MSIdx: 90, NextHSIdx: 100, StrideTime: 0.72, StanceTime: 0.24, SwingTime: 0.48, Cadence: 83},
	}
	metrics := Compute(cycles, orient, gyro, 125)
	require.Len(t, metrics, 1)
	assert.Len(t, metrics[0].KneeCurve, 100)
}

func TestCompute_RejectsOutOfOrderIndices(t *testing.T) {
	orient := syntheticOrientation(150)
	gyro := make([]float64, 150)
	cycles := []gaitmodel.GaitCycle{
		{HSIdx: 40, TOIdx: 10, MSIdx: 90, NextHSIdx: 100},
	}
	metrics := Compute(cycles, orient, gyro, 125)
	assert.Empty(t, metrics)
}

func TestCompute_RejectsShortCycle(t *testing.T) {
	orient := syntheticOrientation(150)
	gyro := make([]float64, 150)
	cycles := []gaitmodel.GaitCycle{
		{HSIdx: 10, TOIdx: 12, MSIdx: 15, NextHSIdx: 18},
	}
	metrics := Compute(cycles, orient, gyro, 125)
	assert.Empty(t, metrics)
}

func TestCompute_ImpactForceLooksAtFirstTenPostHSSamples(t *testing.T) {
	orient := syntheticOrientation(150)
	orient[10].VerticalAcc = 3.0 // within the first 10 samples after HS=10
	orient[50].VerticalAcc = 99.0 // outside the window, must be ignored
	gyro := make([]float64, 150)
	cycles := []gaitmodel.GaitCycle{
		{HSIdx: 10, TOIdx: 40, MSIdx: 90, NextHSIdx: 100, StrideTime: 0.72, StanceTime: 0.24, SwingTime: 0.48, Cadence: 83},
	}
	metrics := Compute(cycles, orient, gyro, 125)
	require.Len(t, metrics, 1)
	assert.InDelta(t, 3.0, metrics[0].ImpactForce, 1e-9)
}
