// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gaitevents locates gait cycles from the shank sagittal gyro and
// vertical acceleration traces: mid-swing peaks, then heel-strike and
// toe-off refinement, then cycle assembly and outlier rejection.
//
// No corpus library exposes a scipy find_peaks equivalent, so peak finding
// here is a from-scratch reimplementation of the cascade in
// original_source/backend/app/d_processing/step_detection.py.
package gaitevents

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

// Config holds every tunable the detector uses; DefaultConfig fills in the
// factory constants.
type Config struct {
	SamplingRate         float64
	MinStepDuration      float64
	MaxStepDuration      float64
	MSPeakHeightFactor   float64
	MSPeakPromFactor     float64
	HSSearchWindow       float64
	TOSearchWindow       float64
	TOPromFactor         float64
	EnableOutlierRemoval bool
	OutlierStdThreshold  float64
}

// DefaultConfig reproduces the documented numeric contract exactly.
func DefaultConfig(fs float64) Config {
	return Config{
		SamplingRate:         fs,
		MinStepDuration:      0.5,
		MaxStepDuration:      2.5,
		MSPeakHeightFactor:   1.5,
		MSPeakPromFactor:     0.5,
		HSSearchWindow:       0.3,
		TOSearchWindow:       0.4,
		TOPromFactor:         0.2,
		EnableOutlierRemoval: true,
		OutlierStdThreshold:  2.5,
	}
}

// Detect runs the full event-detection cascade. gyroSagittal is in any
// consistent unit (rad/s as produced by orientation.Track); accVertical is
// the gravity-compensated vertical acceleration trace, same length. Both
// inputs must be the same length as each other. Fewer than 2 mid-swing
// peaks or fewer than 2 heel-strike events yields an empty, non-error
// result (EmptySignal).
func Detect(gyroSagittal, accVertical []float64, cfg Config) []gaitmodel.GaitCycle {
	if len(gyroSagittal) != len(accVertical) || len(gyroSagittal) == 0 {
		return nil
	}

	msIndices := detectMidSwingPeaks(gyroSagittal, cfg)
	if len(msIndices) < 2 {
		return nil
	}

	hsIndices := make([]int, 0, len(msIndices))
	for _, ms := range msIndices {
		if hs, ok := detectHeelStrike(gyroSagittal, accVertical, ms, cfg); ok {
			hsIndices = append(hsIndices, hs)
		}
	}
	if len(hsIndices) < 2 {
		return nil
	}

	var cycles []gaitmodel.GaitCycle
	for i := 0; i+1 < len(hsIndices); i++ {
		hs := hsIndices[i]
		nextHS := hsIndices[i+1]
		duration := float64(nextHS-hs) / cfg.SamplingRate
		if duration < cfg.MinStepDuration || duration > cfg.MaxStepDuration {
			continue
		}

		ms := bestMidSwingBetween(msIndices, gyroSagittal, hs, nextHS)
		if ms < 0 {
			continue
		}
		to := detectToeOff(gyroSagittal, hs, ms, cfg)
		if to <= hs || to >= ms {
			continue
		}

		strideTime := duration
		stanceTime := float64(to-hs) / cfg.SamplingRate
		swingTime := strideTime - stanceTime
		cycles = append(cycles, gaitmodel.GaitCycle{
			HSIdx:      hs,
			TOIdx:      to,
			MSIdx:      ms,
			NextHSIdx:  nextHS,
			StrideTime: strideTime,
			StanceTime: stanceTime,
			SwingTime:  swingTime,
			Cadence:    60 / strideTime,
		})
	}

	if cfg.EnableOutlierRemoval && len(cycles) > 3 {
		cycles = removeOutliers(cycles, cfg.OutlierStdThreshold)
	}

	return cycles
}

func detectMidSwingPeaks(gyro []float64, cfg Config) []int {
	mean, std := stat.MeanStdDev(gyro, nil)
	height := mean + cfg.MSPeakHeightFactor*std
	prominence := cfg.MSPeakPromFactor * std
	minSeparation := int(cfg.MinStepDuration * cfg.SamplingRate)

	var peaks []int
	for i := 1; i < len(gyro)-1; i++ {
		if gyro[i] < height {
			continue
		}
		if gyro[i] < gyro[i-1] || gyro[i] < gyro[i+1] {
			continue
		}
		if !hasProminence(gyro, i, prominence) {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < minSeparation {
			if gyro[i] > gyro[peaks[len(peaks)-1]] {
				peaks[len(peaks)-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}
	return peaks
}

// hasProminence is a simplified local-prominence check: the peak must
// exceed the higher of the two valley minima on either side of it (each
// searched out to a small local window, stopping at a higher sample) by at
// least `prominence`.
func hasProminence(x []float64, idx int, prominence float64) bool {
	window := 50
	lo := maxInt(0, idx-window)
	hi := minInt(len(x), idx+window+1)
	leftMin := x[idx]
	for i := idx; i >= lo; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
		}
		if x[i] > x[idx] {
			break
		}
	}
	rightMin := x[idx]
	for i := idx; i < hi; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
		}
		if x[i] > x[idx] {
			break
		}
	}
	baseline := math.Max(leftMin, rightMin)
	return x[idx]-baseline >= prominence
}

// detectHeelStrike searches forward from an MS peak within HSSearchWindow
// for the first negative-going zero crossing of the sagittal gyro; failing
// that, the first local minimum of vertical acceleration; failing that, the
// first negative-gyro index.
func detectHeelStrike(gyro, vertAcc []float64, msIdx int, cfg Config) (int, bool) {
	window := int(cfg.HSSearchWindow * cfg.SamplingRate)
	end := minInt(len(gyro), msIdx+window)

	for i := msIdx + 1; i < end; i++ {
		if gyro[i-1] >= 0 && gyro[i] < 0 {
			return i, true
		}
	}

	for i := msIdx + 1; i < end-1; i++ {
		if vertAcc[i] < vertAcc[i-1] && vertAcc[i] < vertAcc[i+1] {
			return i, true
		}
	}

	for i := msIdx + 1; i < end; i++ {
		if gyro[i] < 0 {
			return i, true
		}
	}
	return 0, false
}

// detectToeOff searches backward from MS within TOSearchWindow for the most
// prominent minimum of the sagittal gyro; failing that, the window's
// absolute minimum.
func detectToeOff(gyro []float64, hsIdx, msIdx int, cfg Config) int {
	window := int(cfg.TOSearchWindow * cfg.SamplingRate)
	start := maxInt(hsIdx, msIdx-window)
	if start >= msIdx {
		return start
	}

	_, std := stat.MeanStdDev(gyro[start:msIdx], nil)
	prominence := cfg.TOPromFactor * std

	bestIdx := -1
	bestProm := -1.0
	for i := start + 1; i < msIdx-1; i++ {
		if gyro[i] > gyro[i-1] || gyro[i] > gyro[i+1] {
			continue
		}
		prom := localMinProminence(gyro, i, start, msIdx)
		if prom >= prominence && prom > bestProm {
			bestProm = prom
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		return bestIdx
	}

	minIdx := start
	minVal := gyro[start]
	for i := start; i < msIdx; i++ {
		if gyro[i] < minVal {
			minVal = gyro[i]
			minIdx = i
		}
	}
	return minIdx
}

func localMinProminence(x []float64, idx, lo, hi int) float64 {
	leftMax := x[idx]
	for i := idx; i >= lo; i-- {
		if x[i] > leftMax {
			leftMax = x[i]
		}
	}
	rightMax := x[idx]
	for i := idx; i < hi; i++ {
		if x[i] > rightMax {
			rightMax = x[i]
		}
	}
	baseline := math.Min(leftMax, rightMax)
	return baseline - x[idx]
}

func bestMidSwingBetween(msIndices []int, gyro []float64, hs, nextHS int) int {
	best := -1
	bestHeight := math.Inf(-1)
	for _, ms := range msIndices {
		if ms > hs && ms < nextHS && gyro[ms] > bestHeight {
			bestHeight = gyro[ms]
			best = ms
		}
	}
	return best
}

func removeOutliers(cycles []gaitmodel.GaitCycle, threshold float64) []gaitmodel.GaitCycle {
	durations := make([]float64, len(cycles))
	for i, c := range cycles {
		durations[i] = c.StrideTime
	}
	mean, std := stat.MeanStdDev(durations, nil)
	if std == 0 {
		return cycles
	}

	var out []gaitmodel.GaitCycle
	for i, c := range cycles {
		z := (durations[i] - mean) / std
		if math.Abs(z) < threshold {
			out = append(out, c)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
