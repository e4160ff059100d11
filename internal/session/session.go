// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session aggregates per-step metrics into a session-level summary:
// artifact rejection, descriptive statistics, the Gait Variability Index,
// a speed estimate, and anomaly flagging.
package session

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gaitwalk/internal/activity"
	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

const (
	minStepTime = 0.25
	maxStepTime = 2.5

	severeROMDropFactor      = 0.6
	arrhythmiaLowFactor      = 0.5
	arrhythmiaHighFactor     = 1.5
	highImpactThresholdGs   = 2.5
)

// Aggregate builds the session-level summary from a session's step metrics
// and segmentation. Returns a summary with StepCount == 0 and empty
// aggregates if steps is empty (EmptySignal is not an error at this layer;
// the caller decides what upstream condition produced the empty slice).
func Aggregate(steps []gaitmodel.StepMetrics, segments []gaitmodel.ActivitySegment, meta gaitmodel.SessionMetadata, duration float64) gaitmodel.SessionSummary {
	summary := gaitmodel.SessionSummary{
		SessionID:  meta.SessionID,
		UserID:     meta.UserID,
		StartTime:  meta.StartTime,
		Duration:   duration,
		UserNotes:  meta.UserNotes,
		IsBaseline: meta.IsBaseline,
		Segments:   segments,
		ActivityMix: activity.Mix(segments),
	}

	clean := filterArtifacts(steps)
	summary.StepCount = len(clean)
	if len(clean) == 0 {
		return summary
	}

	fillTemporalAndKinematicAggregates(&summary, clean, duration)
	computeCVs(&summary, clean)
	summary.AvgSpeed = estimateSpeed(clean, meta, duration, summary.AvgKneeROM)
	summary.PathologyLog = detectAnomalies(clean)

	return summary
}

// filterArtifacts keeps steps with step_time in [0.25, 2.5] and, once at
// least 10 remain, additionally drops those outside the IQR fence.
func filterArtifacts(steps []gaitmodel.StepMetrics) []gaitmodel.StepMetrics {
	var boundsOK []gaitmodel.StepMetrics
	for _, s := range steps {
		if s.StepTime >= minStepTime && s.StepTime <= maxStepTime {
			boundsOK = append(boundsOK, s)
		}
	}
	if len(boundsOK) < 10 {
		return boundsOK
	}

	times := make([]float64, len(boundsOK))
	for i, s := range boundsOK {
		times[i] = s.StepTime
	}
	sorted := append([]float64(nil), times...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	var out []gaitmodel.StepMetrics
	for _, s := range boundsOK {
		if s.StepTime >= lo && s.StepTime <= hi {
			out = append(out, s)
		}
	}
	return out
}

func fillTemporalAndKinematicAggregates(summary *gaitmodel.SessionSummary, steps []gaitmodel.StepMetrics, duration float64) {
	n := float64(len(steps))

	var stepTimeSum, stanceSum, swingSum, romSum, hipROMSum, impactSum, peakAVSum float64
	var allKnee, allKneeFlexMax, allKneeExtMin []float64
	var rollSum, pitchSum, yawSum float64
	hipCount := 0

	for _, s := range steps {
		stepTimeSum += s.StepTime
		stanceSum += s.StanceTime
		swingSum += s.SwingTime
		romSum += s.KneeROM
		impactSum += s.ImpactForce
		peakAVSum += s.PeakAngularVelocity
		rollSum += s.MeanRollStance
		pitchSum += s.MeanPitchStance
		yawSum += s.MeanYawStance
		allKneeFlexMax = append(allKneeFlexMax, s.KneeFlexionMax)
		allKneeExtMin = append(allKneeExtMin, s.KneeExtensionMin)
		for _, v := range s.KneeCurve {
			allKnee = append(allKnee, v)
		}
		if s.HipROM != 0 {
			hipROMSum += s.HipROM
			hipCount++
		}
	}

	summary.AvgStepTime = stepTimeSum / n
	summary.AvgStanceTime = stanceSum / n
	summary.AvgSwingTime = swingSum / n
	if summary.AvgSwingTime != 0 {
		summary.StanceSwingRatio = summary.AvgStanceTime / summary.AvgSwingTime
	}
	summary.Cadence = n / duration * 60
	summary.AvgKneeROM = romSum / n
	summary.AvgImpactForce = impactSum / n
	summary.AvgPeakAngularVelocity = peakAVSum / n
	summary.AvgRoll = rollSum / n
	summary.AvgPitch = pitchSum / n
	summary.AvgYaw = yawSum / n

	if len(allKnee) > 0 {
		summary.KneeAngleMean, summary.KneeAngleStd = stat.MeanStdDev(allKnee, nil)
	}
	summary.KneeFlexionMax = maxOf(allKneeFlexMax)
	summary.KneeExtensionMin = minOf(allKneeExtMin)

	if hipCount > 0 {
		summary.AvgHipROM = hipROMSum / float64(hipCount)
		summary.HipHasData = true
	}

	if n > 1 {
		summary.StrideLengthVariability = calculateCV(stepTimesOf(steps))
	}
	if summary.AvgStanceTime+summary.AvgSwingTime > 0 {
		stancePercent := 100 * summary.AvgStanceTime / (summary.AvgStanceTime + summary.AvgSwingTime)
		if stancePercent > 50 {
			summary.DoubleSupportTime = (stancePercent - 50) / 100 * summary.AvgStepTime
		}
	}
}

func computeCVs(summary *gaitmodel.SessionSummary, steps []gaitmodel.StepMetrics) {
	stepTimes := make([]float64, len(steps))
	stanceTimes := make([]float64, len(steps))
	swingTimes := make([]float64, len(steps))
	roms := make([]float64, len(steps))
	for i, s := range steps {
		stepTimes[i] = s.StepTime
		stanceTimes[i] = s.StanceTime
		swingTimes[i] = s.SwingTime
		roms[i] = s.KneeROM
	}

	summary.StepTimeCV = calculateCV(stepTimes)
	summary.StanceCV = calculateCV(stanceTimes)
	summary.SwingCV = calculateCV(swingTimes)
	summary.KneeROMCV = calculateCV(roms)

	var positive []float64
	for _, cv := range []float64{summary.StepTimeCV, summary.StanceCV, summary.SwingCV} {
		if cv > 0 {
			positive = append(positive, cv)
		}
	}
	if len(positive) > 0 {
		summary.GVI = stat.Mean(positive, nil)
	}
}

// calculateCV returns the coefficient of variation in percent, 0 if the
// slice is empty or its mean is zero.
func calculateCV(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	mean, std := stat.MeanStdDev(x, nil)
	if mean == 0 {
		return 0
	}
	return 100 * std / mean
}

func stepTimesOf(steps []gaitmodel.StepMetrics) []float64 {
	out := make([]float64, len(steps))
	for i, s := range steps {
		out[i] = s.StepTime
	}
	return out
}

func maxOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Max(x)
}

func minOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Min(x)
}

// estimateSpeed implements the height-aware leg-length/step-length speed
// formula; with no height, it falls back to the documented defaults.
func estimateSpeed(steps []gaitmodel.StepMetrics, meta gaitmodel.SessionMetadata, duration, avgKneeROM float64) float64 {
	legLength := 0.9
	baseStepLength := 0.7
	if meta.HeightM > 0 {
		heightM := meta.HeightM
		if heightM > 3.0 {
			heightM /= 100 // caller passed centimeters
		}
		legLength = 0.53 * heightM
		baseStepLength = 0.413 * heightM
	}

	avgHipROM := avgKneeROM
	if avgHipROM == 0 {
		avgHipROM = 30
	}
	dynamicStep := 2 * legLength * math.Sin((avgHipROM/1.5)/2*math.Pi/180)
	stepLength := math.Max(dynamicStep, 0.8*baseStepLength)

	if duration == 0 {
		return 0
	}
	return float64(len(steps)) * stepLength / duration
}

// detectAnomalies emits the three anomaly families, one entry per
// offending step.
func detectAnomalies(steps []gaitmodel.StepMetrics) []gaitmodel.Anomaly {
	if len(steps) == 0 {
		return nil
	}

	roms := make([]float64, len(steps))
	stepTimes := make([]float64, len(steps))
	for i, s := range steps {
		roms[i] = s.KneeROM
		stepTimes[i] = s.StepTime
	}
	medianROM := median(roms)
	medianStepTime := median(stepTimes)

	var anomalies []gaitmodel.Anomaly
	for _, s := range steps {
		if medianROM > 0 && s.KneeROM < severeROMDropFactor*medianROM {
			anomalies = append(anomalies, gaitmodel.Anomaly{
				StepIndex:    s.StepIndex,
				Type:         "Severe ROM Drop",
				Metric:       "knee_rom",
				Value:        s.KneeROM,
				TypicalValue: medianROM,
				Severity:     gaitmodel.SeverityCritical,
			})
		}
		if s.StepTime < arrhythmiaLowFactor*medianStepTime || s.StepTime > arrhythmiaHighFactor*medianStepTime {
			anomalies = append(anomalies, gaitmodel.Anomaly{
				StepIndex:    s.StepIndex,
				Type:         "Gait Arrhythmia",
				Metric:       "step_time",
				Value:        s.StepTime,
				TypicalValue: medianStepTime,
				Severity:     gaitmodel.SeverityWarning,
			})
		}
		if s.ImpactForce > highImpactThresholdGs {
			anomalies = append(anomalies, gaitmodel.Anomaly{
				StepIndex:    s.StepIndex,
				Type:         "High Impact Spike",
				Metric:       "impact_force",
				Value:        s.ImpactForce,
				TypicalValue: highImpactThresholdGs,
				Severity:     gaitmodel.SeverityWarning,
			})
		}
	}
	return anomalies
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
