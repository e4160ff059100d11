package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

func makeSteps(n int, stepTime, kneeROM float64) []gaitmodel.StepMetrics {
	out := make([]gaitmodel.StepMetrics, n)
	for i := range out {
		out[i] = gaitmodel.StepMetrics{
			StepIndex:  i,
			StepTime:   stepTime,
			StanceTime: stepTime * 0.6,
			SwingTime:  stepTime * 0.4,
			KneeROM:    kneeROM,
		}
	}
	return out
}

func TestAggregate_EmptyStepsYieldsZeroStepCount(t *testing.T) {
	summary := Aggregate(nil, nil, gaitmodel.SessionMetadata{}, 10)
	assert.Equal(t, 0, summary.StepCount)
	assert.Empty(t, summary.PathologyLog)
}

func TestAggregate_GVIIsMeanOfPositiveTemporalCVs(t *testing.T) {
	// Half the steps at 0.6 s, half at 0.7 s: Q1=0.6 and Q3=0.7, so the IQR
	// fence keeps every step and all three temporal CVs stay positive.
	steps := append(makeSteps(10, 0.6, 30), makeSteps(10, 0.7, 30)...)
	summary := Aggregate(steps, nil, gaitmodel.SessionMetadata{}, 12)

	assert.GreaterOrEqual(t, summary.GVI, 0.0)
	assert.GreaterOrEqual(t, summary.StepTimeCV, 0.0)
	assert.Greater(t, summary.StepTimeCV, 0.0)
	assert.InDelta(t, (summary.StepTimeCV+summary.StanceCV+summary.SwingCV)/3, summary.GVI, 1e-9)
}

func TestAggregate_FlagsSevereROMDrop(t *testing.T) {
	steps := makeSteps(10, 0.6, 30)
	steps[5].KneeROM = 30 * 0.4 // well under 0.6x median
	summary := Aggregate(steps, nil, gaitmodel.SessionMetadata{}, 6)

	found := false
	for _, a := range summary.PathologyLog {
		if a.Type == "Severe ROM Drop" && a.StepIndex == 5 {
			found = true
			assert.Equal(t, gaitmodel.SeverityCritical, a.Severity)
		}
	}
	assert.True(t, found)
}

func TestAggregate_SpeedIsNonNegativeWithoutHeight(t *testing.T) {
	steps := makeSteps(10, 0.6, 30)
	summary := Aggregate(steps, nil, gaitmodel.SessionMetadata{}, 6)
	assert.GreaterOrEqual(t, summary.AvgSpeed, 0.0)
}

func TestFilterArtifacts_DropsOutOfBoundsStepTimes(t *testing.T) {
	steps := makeSteps(5, 0.6, 30)
	steps = append(steps, gaitmodel.StepMetrics{StepIndex: 99, StepTime: 10.0})
	out := filterArtifacts(steps)
	assert.Len(t, out, 5)
}
