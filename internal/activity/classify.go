// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package activity

import (
	"math"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

// Thresholds holds every tunable boundary the classification cascade uses.
// DefaultThresholds holds the factory values, which the pipeline passes in
// unchanged; internal/config carries the same values as tunables but does
// not feed them into this package.
type Thresholds struct {
	StandingSMAMax    float64
	StandingStdMax    float64
	WalkingCadenceMin float64
	WalkingCadenceMax float64
	RunningCadenceMin float64
	RunningEnergyMin  float64
	JumpingPeakCountMin    int
	JumpingVerticalVarMin  float64
	StairsMagRatioMin float64
	StairsCadenceMin  float64
	StairsCadenceMax  float64
	StairsSMAMin      float64
}

// DefaultThresholds reproduces the classification cascade's numeric
// contract exactly.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StandingSMAMax:        0.5,
		StandingStdMax:        0.3,
		WalkingCadenceMin:     80,
		WalkingCadenceMax:     140,
		RunningCadenceMin:     140,
		RunningEnergyMin:      50.0,
		JumpingPeakCountMin:   3,
		JumpingVerticalVarMin: 5.0,
		StairsMagRatioMin:     1.3,
		StairsCadenceMin:      60,
		StairsCadenceMax:      100,
		StairsSMAMin:          1.0,
	}
}

// classify runs the prioritized rule cascade, first match wins, and
// returns a deterministic per-class confidence.
func classify(f gaitmodel.ActivityFeatures, th Thresholds) (gaitmodel.Activity, float64) {
	if f.PeakCountShank >= th.JumpingPeakCountMin && f.VerticalVariance >= th.JumpingVerticalVarMin && f.MagStdShank > th.StandingStdMax*3 {
		confidence := clamp01(f.VerticalVariance / (2 * th.JumpingVerticalVarMin))
		return gaitmodel.ActivityJumping, confidence
	}

	if f.SMAShank <= th.StandingSMAMax && f.MagStdShank <= th.StandingStdMax {
		confidence := clamp01(1.0 - f.SMAShank/th.StandingSMAMax)
		return gaitmodel.ActivityStanding, confidence
	}

	if f.SMAShank >= 3.0 && f.Cadence >= th.RunningCadenceMin && f.SpectralEnergyShank >= th.RunningEnergyMin {
		confidence := clamp01(0.5*(f.SpectralEnergyShank/th.RunningEnergyMin) + 0.5*(f.Cadence/(1.5*th.RunningCadenceMin)))
		return gaitmodel.ActivityRunning, confidence
	}

	if f.MagRatio >= th.StairsMagRatioMin && f.Cadence >= th.StairsCadenceMin && f.Cadence <= th.StairsCadenceMax && f.SMAShank >= th.StairsSMAMin {
		confidence := clamp01(0.5*(f.MagRatio-1.0) + 0.5)
		return gaitmodel.ActivityStairs, confidence
	}

	if f.SMAShank >= 0.5 && f.SMAShank <= 3.0 && f.Cadence >= th.WalkingCadenceMin && f.Cadence <= th.WalkingCadenceMax && f.SpectralEnergyShank < th.RunningEnergyMin {
		center := (th.WalkingCadenceMin + th.WalkingCadenceMax) / 2
		rng := (th.WalkingCadenceMax - th.WalkingCadenceMin) / 2
		confidence := math.Max(0.5, 1-math.Abs(f.Cadence-center)/rng)
		return gaitmodel.ActivityWalking, confidence
	}

	return gaitmodel.ActivityUnknown, 0.3
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
