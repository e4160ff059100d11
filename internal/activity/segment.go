// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package activity

import (
	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

const (
	windowSizeSeconds    = 2.0
	windowOverlapSeconds = 0.5
)

// Segment windows a calibrated, pre-filtered session into overlapping
// 2.0s/0.5s-overlap windows, classifies each, and merges adjacent
// same-label windows into the final segment list. The last segment's
// EndTime is extended to the final sample, so trailing samples that do not
// fill a whole window are still covered. A session shorter than one window
// yields zero segments (not an error).
func Segment(samples []gaitmodel.SensorSample, fs float64, th Thresholds) []gaitmodel.ActivitySegment {
	windowSamples := int(windowSizeSeconds * fs)
	hopSamples := int((windowSizeSeconds - windowOverlapSeconds) * fs)
	if windowSamples <= 0 || hopSamples <= 0 || len(samples) < windowSamples {
		return nil
	}

	var raw []gaitmodel.ActivitySegment
	for start := 0; start+windowSamples <= len(samples); start += hopSamples {
		win := samples[start : start+windowSamples]
		features := extractFeatures(win, fs)
		act, confidence := classify(features, th)

		raw = append(raw, gaitmodel.ActivitySegment{
			Activity:   act,
			StartTime:  win[0].Timestamp,
			EndTime:    win[len(win)-1].Timestamp,
			Confidence: confidence,
			Features:   features,
		})
	}

	merged := mergeSegments(raw)
	merged[len(merged)-1].EndTime = samples[len(samples)-1].Timestamp
	return merged
}

// mergeSegments coalesces adjacent segments sharing an activity label,
// averaging confidence and adopting the later end_time.
func mergeSegments(segments []gaitmodel.ActivitySegment) []gaitmodel.ActivitySegment {
	if len(segments) == 0 {
		return nil
	}
	merged := []gaitmodel.ActivitySegment{segments[0]}
	counts := []int{1}

	for _, seg := range segments[1:] {
		last := &merged[len(merged)-1]
		if seg.Activity == last.Activity {
			n := counts[len(counts)-1]
			last.Confidence = (last.Confidence*float64(n) + seg.Confidence) / float64(n+1)
			counts[len(counts)-1] = n + 1
			last.EndTime = seg.EndTime
			continue
		}
		merged = append(merged, seg)
		counts = append(counts, 1)
	}
	return merged
}

// Mix computes the per-activity cumulative duration and share of the
// total segmented time.
func Mix(segments []gaitmodel.ActivitySegment) []gaitmodel.ActivityMixEntry {
	if len(segments) == 0 {
		return nil
	}
	durations := make(map[gaitmodel.Activity]float64)
	var total float64
	for _, s := range segments {
		d := s.EndTime - s.StartTime
		durations[s.Activity] += d
		total += d
	}
	if total == 0 {
		return nil
	}

	out := make([]gaitmodel.ActivityMixEntry, 0, len(durations))
	for act, dur := range durations {
		out = append(out, gaitmodel.ActivityMixEntry{
			Activity:   act,
			Duration:   dur,
			Percentage: 100 * dur / total,
		})
	}
	return out
}
