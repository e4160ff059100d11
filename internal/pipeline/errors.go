// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import "fmt"

// ErrEmptySignal marks the EmptySignal condition: fewer than 2 mid-swing
// peaks or fewer than 2 heel-strike events were found. It is never
// returned as an error — it exists so callers and logs can refer to the
// condition by name; the pipeline response is a zero-step summary.
var ErrEmptySignal = fmt.Errorf("pipeline: empty signal, no gait cycles detected")

// ErrDegenerateCycle marks a single cycle that failed per-step validation.
// Individual occurrences are silently skipped and counted, never returned.
var ErrDegenerateCycle = fmt.Errorf("pipeline: degenerate cycle")

// ErrAllStepsFiltered marks the condition where the artifact filter left
// zero clean steps. The summary is still produced, with null aggregates.
var ErrAllStepsFiltered = fmt.Errorf("pipeline: all steps filtered as artifacts")
