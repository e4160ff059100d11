package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
	"github.com/relabs-tech/gaitwalk/internal/ingest"
)

func standingSamples(seconds float64, fs float64) []gaitmodel.SensorSample {
	n := int(seconds * fs)
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

func walkingSamples(seconds float64, fs float64) []gaitmodel.SensorSample {
	n := int(seconds * fs)
	out := make([]gaitmodel.SensorSample, n)
	for i := range out {
		t := float64(i) / fs
		gyro := 200 * math.Sin(2*math.Pi*1*t)
		vert := 9.81 + 2.5*math.Sin(2*math.Pi*1*t-math.Pi/2)
		out[i] = gaitmodel.SensorSample{
			Timestamp: t,
			AccThigh:  gaitmodel.Vec3{0.3, 0, 9.81},
			GyroThigh: gaitmodel.Vec3{0, gyro * 0.4, 0},
			AccShank:  gaitmodel.Vec3{0.5, 0, vert},
			GyroShank: gaitmodel.Vec3{0, gyro, 0},
		}
	}
	return out
}

func TestRun_MalformedInputIsAnError(t *testing.T) {
	_, err := Run(context.Background(), []byte{1, 2, 3}, gaitmodel.SessionMetadata{}, nil)
	require.ErrorIs(t, err, ingest.ErrMalformedInput)
}

func TestRun_EmptyInputYieldsEmptySummaryNotAnError(t *testing.T) {
	summary, err := Run(context.Background(), nil, gaitmodel.SessionMetadata{SessionID: "s1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.StepCount)
}

func TestRun_StandingScenarioProducesZeroSteps(t *testing.T) {
	samples := standingSamples(10, gaitmodel.SampleRateHz)
	raw := ingest.Pack(samples)
	meta := gaitmodel.SessionMetadata{SessionID: "standing", StartTime: time.Now()}
	summary, err := Run(context.Background(), raw, meta, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.StepCount)
	assert.Empty(t, summary.PathologyLog)
}

func TestRun_WalkingScenarioProducesPlausibleCadence(t *testing.T) {
	samples := walkingSamples(20, gaitmodel.SampleRateHz)
	raw := ingest.Pack(samples)
	meta := gaitmodel.SessionMetadata{SessionID: "walking", StartTime: time.Now()}
	summary, err := Run(context.Background(), raw, meta, nil)
	require.NoError(t, err)
	assert.Greater(t, summary.StepCount, 0)
}

func TestRun_NoCalibrationStoreFallsBackWithWarning(t *testing.T) {
	samples := standingSamples(5, gaitmodel.SampleRateHz)
	raw := ingest.Pack(samples)
	summary, err := Run(context.Background(), raw, gaitmodel.SessionMetadata{SessionID: "s"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, summary.Warnings)
	assert.Equal(t, "BadCalibration", summary.Warnings[0].Code)
}
