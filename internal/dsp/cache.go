// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dsp

import "fmt"

// FilterBank caches Butterworth low-pass cascades by (cutoff, order). Order
// is fixed at 4 throughout this pipeline, but the key keeps the cache
// correct if that ever changes. A FilterBank has the lifetime of a single
// pipeline run: the activity-aware filter stage creates one, uses it for
// every distinct activity cutoff, and releases it when the stage returns.
type FilterBank struct {
	fs    float64
	cache map[string]Cascade
}

// NewFilterBank creates an empty cache for the given sample rate.
func NewFilterBank(fs float64) *FilterBank {
	return &FilterBank{fs: fs, cache: make(map[string]Cascade)}
}

// Lowpass returns the cached 4th-order Butterworth low-pass cascade for
// cutoffHz, building and caching it on first use. Returned cascades must be
// Clone()'d before Process-ing to avoid cross-talk between callers sharing
// the cache.
func (fb *FilterBank) Lowpass(cutoffHz float64) Cascade {
	key := fmt.Sprintf("lp:%.4f:%d", cutoffHz, butterworthOrder)
	if c, ok := fb.cache[key]; ok {
		return c
	}
	c := NewButterworthLowpass(cutoffHz, fb.fs)
	fb.cache[key] = c
	return c
}
