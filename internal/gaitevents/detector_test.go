package gaitevents

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func syntheticWalkingTraces(seconds float64, fs float64) (gyro, vert []float64) {
	n := int(seconds * fs)
	gyro = make([]float64, n)
	vert = make([]float64, n)
	for i := range gyro {
		t := float64(i) / fs
		gyro[i] = 200 * math.Sin(2*math.Pi*1*t)
		vert[i] = 2.5 * math.Sin(2*math.Pi*1*t-math.Pi/2)
	}
	return gyro, vert
}

func TestDetect_WalkingSurrogateProducesPlausibleCycleCount(t *testing.T) {
	gyro, vert := syntheticWalkingTraces(20, 125)
	cycles := Detect(gyro, vert, DefaultConfig(125))

	assert.GreaterOrEqual(t, len(cycles), 15)
	for _, c := range cycles {
		assert.Less(t, c.HSIdx, c.TOIdx)
		assert.Less(t, c.TOIdx, c.NextHSIdx)
		assert.GreaterOrEqual(t, c.StrideTime, 0.5)
		assert.LessOrEqual(t, c.StrideTime, 2.5)
		assert.InDelta(t, c.StrideTime, c.StanceTime+c.SwingTime, 1.0/125)
	}
}

func TestDetect_EmptyWhenFewerThanTwoPeaks(t *testing.T) {
	gyro := make([]float64, 300)
	vert := make([]float64, 300)
	cycles := Detect(gyro, vert, DefaultConfig(125))
	assert.Empty(t, cycles)
}

func TestDetect_MismatchedLengthsYieldsEmpty(t *testing.T) {
	cycles := Detect(make([]float64, 10), make([]float64, 5), DefaultConfig(125))
	assert.Empty(t, cycles)
}
