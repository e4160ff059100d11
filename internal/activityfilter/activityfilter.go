// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package activityfilter applies the activity-dependent Butterworth
// low-pass bank and cross-fades between cutoffs at segment boundaries.
package activityfilter

import (
	"math"

	"github.com/relabs-tech/gaitwalk/internal/dsp"
	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

// TransitionDuration is the default cosine fade-in/fade-out window at
// segment boundaries.
const TransitionDuration = 0.5

// Cutoffs maps each activity class to its Butterworth low-pass cutoff, in Hz.
var Cutoffs = map[gaitmodel.Activity]float64{
	gaitmodel.ActivityStanding: 2.0,
	gaitmodel.ActivityWalking:  6.0,
	gaitmodel.ActivityStairs:   7.0,
	gaitmodel.ActivityRunning:  12.0,
	gaitmodel.ActivityJumping:  15.0,
	gaitmodel.ActivityUnknown:  8.0,
}

// Apply filters every channel of samples using the activity-aware
// cross-faded Butterworth bank. The FilterBank cache it builds internally
// lives only for the duration of this call, per the pipeline's cache
// ownership rule.
func Apply(samples []gaitmodel.SensorSample, segments []gaitmodel.ActivitySegment, fs float64) []gaitmodel.SensorSample {
	if len(samples) == 0 {
		return nil
	}

	bank := dsp.NewFilterBank(fs)
	masks := buildAlphaMasks(samples, segments, fs)

	filteredByActivity := make(map[gaitmodel.Activity]struct {
		accThigh, accShank, gyroThigh, gyroShank [3][]float64
	})

	for act := range masks {
		cutoff := Cutoffs[act]
		cascade := bank.Lowpass(cutoff)
		filteredByActivity[act] = filterAllChannels(samples, cascade)
	}

	out := make([]gaitmodel.SensorSample, len(samples))
	for i, s := range samples {
		out[i].Timestamp = s.Timestamp
		var accThigh, gyroThigh, accShank, gyroShank gaitmodel.Vec3
		for act, alpha := range masks {
			a := alpha[i]
			if a == 0 {
				continue
			}
			f := filteredByActivity[act]
			for c := 0; c < 3; c++ {
				accThigh[c] += a * f.accThigh[c][i]
				gyroThigh[c] += a * f.gyroThigh[c][i]
				accShank[c] += a * f.accShank[c][i]
				gyroShank[c] += a * f.gyroShank[c][i]
			}
		}
		out[i].AccThigh = accThigh
		out[i].GyroThigh = gyroThigh
		out[i].AccShank = accShank
		out[i].GyroShank = gyroShank
	}

	return out
}

func filterAllChannels(samples []gaitmodel.SensorSample, cascade dsp.Cascade) struct {
	accThigh, accShank, gyroThigh, gyroShank [3][]float64
} {
	n := len(samples)
	var out struct {
		accThigh, accShank, gyroThigh, gyroShank [3][]float64
	}
	extract := func(pick func(gaitmodel.SensorSample) gaitmodel.Vec3) [3][]float64 {
		var channels [3][]float64
		for c := 0; c < 3; c++ {
			raw := make([]float64, n)
			for i, s := range samples {
				raw[i] = pick(s)[c]
			}
			channels[c] = dsp.FiltFilt(cascade, raw)
		}
		return channels
	}
	out.accThigh = extract(func(s gaitmodel.SensorSample) gaitmodel.Vec3 { return s.AccThigh })
	out.gyroThigh = extract(func(s gaitmodel.SensorSample) gaitmodel.Vec3 { return s.GyroThigh })
	out.accShank = extract(func(s gaitmodel.SensorSample) gaitmodel.Vec3 { return s.AccShank })
	out.gyroShank = extract(func(s gaitmodel.SensorSample) gaitmodel.Vec3 { return s.GyroShank })
	return out
}

// buildAlphaMasks builds one per-sample alpha curve per activity present in
// segments, applies cosine fade-in/fade-out at each segment's boundaries,
// sums and normalizes them so every sample's total alpha is 1, and falls
// back to the Unknown mask wherever the total alpha is ~0 (e.g. gaps
// between segments in a session too short to be fully segmented).
func buildAlphaMasks(samples []gaitmodel.SensorSample, segments []gaitmodel.ActivitySegment, fs float64) map[gaitmodel.Activity][]float64 {
	n := len(samples)
	masks := make(map[gaitmodel.Activity][]float64)
	ensure := func(act gaitmodel.Activity) []float64 {
		if m, ok := masks[act]; ok {
			return m
		}
		m := make([]float64, n)
		masks[act] = m
		return m
	}

	fadeSamples := int(TransitionDuration * fs)

	for _, seg := range segments {
		mask := ensure(seg.Activity)
		startIdx := timeToIndex(samples, seg.StartTime)
		endIdx := timeToIndex(samples, seg.EndTime)
		for i := startIdx; i <= endIdx && i < n; i++ {
			alpha := 1.0
			if fadeSamples > 0 {
				distFromStart := i - startIdx
				distFromEnd := endIdx - i
				if distFromStart < fadeSamples {
					alpha *= fadeCurve(distFromStart, fadeSamples)
				}
				if distFromEnd < fadeSamples {
					alpha *= fadeCurve(distFromEnd, fadeSamples)
				}
			}
			mask[i] += alpha
		}
	}

	total := make([]float64, n)
	for _, mask := range masks {
		for i, a := range mask {
			total[i] += a
		}
	}

	unknown := ensure(gaitmodel.ActivityUnknown)
	for i, t := range total {
		if t < 1e-6 {
			unknown[i] = 1
			total[i] = 1
		}
	}

	for _, mask := range masks {
		for i := range mask {
			if total[i] > 1e-6 {
				mask[i] /= total[i]
			}
		}
	}

	return masks
}

// fadeCurve is the cosine fade-in curve: 0.5*(1-cos(pi*t)), t in [0,1].
func fadeCurve(distFromEdge, fadeSamples int) float64 {
	t := float64(distFromEdge) / float64(fadeSamples)
	return 0.5 * (1 - math.Cos(math.Pi*t))
}

func timeToIndex(samples []gaitmodel.SensorSample, t float64) int {
	// samples are uniformly spaced; binary search would be overkill for a
	// per-segment lookup.
	for i, s := range samples {
		if s.Timestamp >= t {
			return i
		}
	}
	return len(samples) - 1
}
