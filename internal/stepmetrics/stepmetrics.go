// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package stepmetrics computes the per-cycle temporal and kinematic
// metrics that feed the session aggregator.
package stepmetrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

const minCycleSamples = 10

// Compute builds a StepMetrics record for every valid cycle. A cycle is
// rejected (not emitted, not an error) if its indices are out of order or
// its span is shorter than minCycleSamples.
func Compute(cycles []gaitmodel.GaitCycle, orient []gaitmodel.OrientationSample, sagittalGyro []float64, fs float64) []gaitmodel.StepMetrics {
	var out []gaitmodel.StepMetrics
	for i, c := range cycles {
		if !(c.HSIdx < c.TOIdx && c.TOIdx < c.NextHSIdx) {
			continue
		}
		if c.NextHSIdx-c.HSIdx < minCycleSamples {
			continue
		}
		out = append(out, computeSingle(i, c, orient, sagittalGyro, fs))
	}
	return out
}

func computeSingle(index int, c gaitmodel.GaitCycle, orient []gaitmodel.OrientationSample, sagittalGyro []float64, fs float64) gaitmodel.StepMetrics {
	stanceSwingRatio := 0.0
	if c.SwingTime != 0 {
		stanceSwingRatio = c.StanceTime / c.SwingTime
	}

	kneeFull := make([]float64, c.NextHSIdx-c.HSIdx)
	thighPitchFull := make([]float64, len(kneeFull))
	for i := range kneeFull {
		kneeFull[i] = orient[c.HSIdx+i].KneeAngle
		thighPitchFull[i] = orient[c.HSIdx+i].ThighPitch
	}

	swingSlice := kneeFull[c.TOIdx-c.HSIdx:]
	stanceSlice := kneeFull[:c.TOIdx-c.HSIdx]

	kneeFlexionMax := maxOrFallback(swingSlice, kneeFull)
	kneeExtensionMin := minOrFallback(stanceSlice, kneeFull)

	hipFlexionMax := maxOf(thighPitchFull)
	hipExtensionMin := minOf(thighPitchFull)

	var rollSum, pitchSum, yawSum float64
	stanceCount := c.TOIdx - c.HSIdx
	for i := c.HSIdx; i < c.TOIdx; i++ {
		rollSum += orient[i].ShankRoll
		pitchSum += orient[i].ShankPitch
		yawSum += orient[i].ShankYaw
	}
	var meanRoll, meanPitch, meanYaw float64
	if stanceCount > 0 {
		meanRoll = rollSum / float64(stanceCount)
		meanPitch = pitchSum / float64(stanceCount)
		meanYaw = yawSum / float64(stanceCount)
	}

	peakAngularVelocity := 0.0
	for i := c.HSIdx; i < c.NextHSIdx; i++ {
		if v := math.Abs(sagittalGyro[i]); v > peakAngularVelocity {
			peakAngularVelocity = v
		}
	}

	impactForce := 0.0
	impactEnd := c.HSIdx + 10
	if impactEnd > len(orient) {
		impactEnd = len(orient)
	}
	for i := c.HSIdx; i < impactEnd; i++ {
		if v := math.Abs(orient[i].VerticalAcc); v > impactForce {
			impactForce = v
		}
	}

	return gaitmodel.StepMetrics{
		StepIndex:           index,
		StepTime:            c.StrideTime,
		StanceTime:          c.StanceTime,
		SwingTime:           c.SwingTime,
		StanceSwingRatio:    stanceSwingRatio,
		KneeFlexionMax:      kneeFlexionMax,
		KneeExtensionMin:    kneeExtensionMin,
		KneeROM:             kneeFlexionMax - kneeExtensionMin,
		HipFlexionMax:       hipFlexionMax,
		HipExtensionMin:     hipExtensionMin,
		HipROM:              hipFlexionMax - hipExtensionMin,
		MeanRollStance:      meanRoll,
		MeanPitchStance:     meanPitch,
		MeanYawStance:       meanYaw,
		PeakAngularVelocity: peakAngularVelocity,
		ImpactForce:         impactForce,
		KneeCurve:           normalizeTo100Points(kneeFull),
		Cadence:             c.Cadence,
	}
}

func maxOrFallback(primary, fallback []float64) float64 {
	if len(primary) == 0 {
		return maxOf(fallback)
	}
	return maxOf(primary)
}

func minOrFallback(primary, fallback []float64) float64 {
	if len(primary) == 0 {
		return minOf(fallback)
	}
	return minOf(primary)
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

// normalizeTo100Points linearly resamples a cycle's knee-angle slice to
// exactly 100 evenly spaced phase points, matching
// scipy.interpolate.interp1d(kind='linear') in the original implementation.
func normalizeTo100Points(signal []float64) [100]float64 {
	var out [100]float64
	n := len(signal)
	if n == 0 {
		return out
	}
	if n == 1 {
		for i := range out {
			out[i] = signal[0]
		}
		return out
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) * 100 / float64(n-1)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, signal); err != nil {
		// Degenerate input (non-increasing xs can't happen here since xs is
		// strictly increasing for n>1); fall back to nearest-sample copy.
		for i := range out {
			idx := i * n / 100
			if idx >= n {
				idx = n - 1
			}
			out[i] = signal[idx]
		}
		return out
	}

	for i := 0; i < 100; i++ {
		phase := float64(i) * 100 / 99
		if phase < xs[0] {
			phase = xs[0]
		}
		if phase > xs[n-1] {
			phase = xs[n-1]
		}
		out[i] = pl.Predict(phase)
	}
	return out
}
