package activity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

func standingSamples(n int, fs float64) []gaitmodel.SensorSample {
	out := make([]gaitmodel.SensorSample, n)
	for i := range out {
		out[i] = gaitmodel.SensorSample{
			Timestamp: float64(i) / fs,
			AccThigh:  gaitmodel.Vec3{0, 0, 9.81},
			AccShank:  gaitmodel.Vec3{0, 0, 9.81},
		}
	}
	return out
}

func TestSegment_ShortSessionYieldsNoSegments(t *testing.T) {
	samples := standingSamples(100, 125) // < 2.0s window
	segs := Segment(samples, 125, DefaultThresholds())
	assert.Empty(t, segs)
}

func TestSegment_StandingSessionIsOneSegment(t *testing.T) {
	samples := standingSamples(int(10*125), 125)
	segs := Segment(samples, 125, DefaultThresholds())
	if assert.Len(t, segs, 1) {
		assert.Equal(t, gaitmodel.ActivityStanding, segs[0].Activity)
	}
}

func TestSegment_CoversEntireTimelineWithoutGaps(t *testing.T) {
	samples := standingSamples(int(12*125), 125)
	segs := Segment(samples, 125, DefaultThresholds())
	if assert.NotEmpty(t, segs) {
		assert.Equal(t, samples[0].Timestamp, segs[0].StartTime)
		assert.Equal(t, samples[len(samples)-1].Timestamp, segs[len(segs)-1].EndTime)
	}
	for i := 1; i < len(segs); i++ {
		assert.LessOrEqual(t, segs[i-1].EndTime, segs[i].EndTime)
		assert.LessOrEqual(t, segs[i].StartTime, segs[i-1].EndTime, "gap before segment %d", i)
	}
}

func TestSegment_WalkingSurrogateClassifiesAsWalking(t *testing.T) {
	const fs = 125.0
	n := int(20 * fs)
	samples := make([]gaitmodel.SensorSample, n)
	for i := range samples {
		t := float64(i) / fs
		gyro := 200 * math.Sin(2*math.Pi*1*t)
		vert := 9.81 + 2.5*math.Sin(2*math.Pi*1*t)
		samples[i] = gaitmodel.SensorSample{
			Timestamp: t,
			AccThigh:  gaitmodel.Vec3{0, 0, 9.81},
			GyroThigh: gaitmodel.Vec3{0, gyro * 0.5, 0},
			AccShank:  gaitmodel.Vec3{0.5, 0, vert},
			GyroShank: gaitmodel.Vec3{0, gyro, 0},
		}
	}
	segs := Segment(samples, fs, DefaultThresholds())
	assert.NotEmpty(t, segs)
}
