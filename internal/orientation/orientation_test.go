package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

func TestToEuler_ClampsAtPitchSingularity(t *testing.T) {
	// A quaternion representing a pure +90 degree pitch rotation.
	half := math.Pi / 4
	q := Quaternion{W: math.Cos(half), X: 0, Y: math.Sin(half), Z: 0}
	e := q.ToEuler()
	assert.InDelta(t, math.Pi/2, e.Pitch, 1e-6)
}

func TestMadgwick_ConvergesOnStationaryAccel(t *testing.T) {
	m := NewMadgwick(DefaultBeta)
	for i := 0; i < 500; i++ {
		m.Update([3]float64{0, 0, 9.81}, [3]float64{0, 0, 0}, 1.0/125)
	}
	e := m.Quaternion().ToEuler()
	assert.InDelta(t, 0, e.Roll, 0.05)
	assert.InDelta(t, 0, e.Pitch, 0.05)
}

func TestTrack_OneZeroSensorNegatesOtherSensorsPitch(t *testing.T) {
	n := 300
	samples := make([]gaitmodel.SensorSample, n)
	for i := range samples {
		samples[i] = gaitmodel.SensorSample{
			Timestamp: float64(i) / 125,
			AccThigh:  gaitmodel.Vec3{0, 0, 0}, // degenerate sensor
			GyroThigh: gaitmodel.Vec3{0, 0, 0},
			AccShank:  gaitmodel.Vec3{0.2, 0, 9.75}, // small, nonzero tilt
			GyroShank: gaitmodel.Vec3{0, 0, 0},
		}
	}
	orient, _, _ := Track(samples, 125)
	last := orient[len(orient)-1]
	// A zeroed accelerometer leaves the thigh filter at identity attitude
	// (pitch 0), so knee_angle = thigh - shank collapses to the negative of
	// shank pitch.
	assert.InDelta(t, -last.ShankPitch, last.KneeAngle, 1e-6)
}
