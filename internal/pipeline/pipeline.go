// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline wires the nine gait-analysis stages into one orchestrated
// per-session run, grounded on the sequential stage wiring of
// original_source/backend/app/d_processing/raw_process.py's
// GaitAnalysisOrchestrator.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/gaitwalk/internal/activity"
	"github.com/relabs-tech/gaitwalk/internal/activityfilter"
	"github.com/relabs-tech/gaitwalk/internal/calibration"
	"github.com/relabs-tech/gaitwalk/internal/dsp"
	"github.com/relabs-tech/gaitwalk/internal/gaitevents"
	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
	"github.com/relabs-tech/gaitwalk/internal/ingest"
	"github.com/relabs-tech/gaitwalk/internal/orientation"
	"github.com/relabs-tech/gaitwalk/internal/session"
	"github.com/relabs-tech/gaitwalk/internal/stepmetrics"
)

// PreFilterCutoffHz is the fixed anti-alias cutoff applied before
// segmentation.
const PreFilterCutoffHz = 20.0

// Run executes the full nine-stage pipeline over one session's raw bytes.
// Only a truncated/unparseable input (MalformedInput), or ctx already being
// done when the calibration load starts, is returned as an error; every
// other recoverable condition is downgraded to a Warning on the returned
// summary.
func Run(ctx context.Context, raw []byte, meta gaitmodel.SessionMetadata, calStore calibration.Store) (gaitmodel.SessionSummary, error) {
	samples, err := ingest.Unpack(raw)
	if err != nil {
		log.Error().Err(err).Str("session_id", meta.SessionID).Msg("malformed session input")
		return gaitmodel.SessionSummary{}, err
	}
	if len(samples) == 0 {
		return gaitmodel.SessionSummary{SessionID: meta.SessionID, UserID: meta.UserID, StartTime: meta.StartTime}, nil
	}

	var warnings []gaitmodel.Warning

	thighCal, shankCal, calWarnings, err := loadOrFallbackCalibration(ctx, calStore, meta.DeviceID, samples)
	if err != nil {
		return gaitmodel.SessionSummary{}, fmt.Errorf("pipeline: calibration: %w", err)
	}
	warnings = append(warnings, calWarnings...)

	calibrated := calibration.ApplySession(samples, thighCal, shankCal)

	fs := gaitmodel.SampleRateHz
	preFiltered := preFilterSession(calibrated, fs)

	segments := activity.Segment(preFiltered, fs, activity.DefaultThresholds())

	activityFiltered := activityfilter.Apply(preFiltered, segments, fs)

	orient, sagittalGyro, _ := orientation.Track(activityFiltered, fs)

	verticalAcc := make([]float64, len(orient))
	for i, o := range orient {
		verticalAcc[i] = o.VerticalAcc
	}

	cycles := gaitevents.Detect(sagittalGyro, verticalAcc, gaitevents.DefaultConfig(fs))
	if len(cycles) == 0 {
		log.Warn().Str("session_id", meta.SessionID).Msg(ErrEmptySignal.Error())
	}

	steps := stepmetrics.Compute(cycles, orient, sagittalGyro, fs)
	degenerate := len(cycles) - len(steps)
	if degenerate > 0 {
		warnings = append(warnings, gaitmodel.Warning{
			Stage: "stepmetrics", Code: "DegenerateCycle",
			Message: fmt.Sprintf("%d cycle(s) failed per-step validation and were skipped", degenerate),
		})
		log.Warn().Int("count", degenerate).Msg(ErrDegenerateCycle.Error())
	}

	duration := activityFiltered[len(activityFiltered)-1].Timestamp - activityFiltered[0].Timestamp
	summary := session.Aggregate(steps, segments, meta, duration)
	summary.EndTime = meta.StartTime

	if len(steps) > 0 && summary.StepCount == 0 {
		warnings = append(warnings, gaitmodel.Warning{
			Stage: "session", Code: "AllStepsFiltered",
			Message: ErrAllStepsFiltered.Error(),
		})
		log.Warn().Str("session_id", meta.SessionID).Msg(ErrAllStepsFiltered.Error())
	}

	summary.Warnings = append(warnings, summary.Warnings...)
	return summary, nil
}

// loadOrFallbackCalibration loads the device's persisted calibration and
// applies the gravity-alignment rotation on top of it. Any failure (not
// found, malformed blob) falls back to identity calibration plus a
// BadCalibration warning, never an error.
func loadOrFallbackCalibration(ctx context.Context, store calibration.Store, deviceID string, samples []gaitmodel.SensorSample) (thigh, shank gaitmodel.SensorCalibration, warnings []gaitmodel.Warning, err error) {
	select {
	case <-ctx.Done():
		return gaitmodel.SensorCalibration{}, gaitmodel.SensorCalibration{}, nil, ctx.Err()
	default:
	}

	if store == nil {
		return fallbackCalibration(samples)
	}

	dc, ok, loadErr := calibration.Load(store, deviceID)
	if loadErr != nil || !ok {
		t, s, w := fallbackIdentity()
		if loadErr != nil {
			log.Warn().Err(loadErr).Str("device_id", deviceID).Msg("falling back to identity calibration")
		}
		return t, s, w, nil
	}

	thighAcc := make([]gaitmodel.Vec3, len(samples))
	shankAcc := make([]gaitmodel.Vec3, len(samples))
	for i, s := range samples {
		thighAcc[i] = s.AccThigh
		shankAcc[i] = s.AccShank
	}

	thighRot := calibration.AlignToGravity(thighAcc, dc.Sensor1, gaitmodel.SampleRateHz)
	shankRot := calibration.AlignToGravity(shankAcc, dc.Sensor2, gaitmodel.SampleRateHz)
	dc.Sensor1.RotationMatrix = &thighRot
	dc.Sensor2.RotationMatrix = &shankRot

	return dc.Sensor1, dc.Sensor2, nil, nil
}

func fallbackCalibration(samples []gaitmodel.SensorSample) (thigh, shank gaitmodel.SensorCalibration, warnings []gaitmodel.Warning, err error) {
	t, s, w := fallbackIdentity()
	return t, s, w, nil
}

func fallbackIdentity() (gaitmodel.SensorCalibration, gaitmodel.SensorCalibration, []gaitmodel.Warning) {
	cal := gaitmodel.DefaultSensorCalibration()
	return cal, cal, []gaitmodel.Warning{{
		Stage:   "calibration",
		Code:    "BadCalibration",
		Message: "no calibration available; falling back to identity calibration",
	}}
}

// preFilterSession applies the fixed 20Hz zero-phase Butterworth low-pass
// to every channel independently.
func preFilterSession(samples []gaitmodel.SensorSample, fs float64) []gaitmodel.SensorSample {
	bank := dsp.NewFilterBank(fs)
	cascade := bank.Lowpass(PreFilterCutoffHz)

	n := len(samples)
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

	accThigh := extract(func(s gaitmodel.SensorSample) gaitmodel.Vec3 { return s.AccThigh })
	gyroThigh := extract(func(s gaitmodel.SensorSample) gaitmodel.Vec3 { return s.GyroThigh })
	accShank := extract(func(s gaitmodel.SensorSample) gaitmodel.Vec3 { return s.AccShank })
	gyroShank := extract(func(s gaitmodel.SensorSample) gaitmodel.Vec3 { return s.GyroShank })

	out := make([]gaitmodel.SensorSample, n)
	for i, s := range samples {
		out[i] = gaitmodel.SensorSample{
			Timestamp: s.Timestamp,
			AccThigh:  gaitmodel.Vec3{accThigh[0][i], accThigh[1][i], accThigh[2][i]},
			GyroThigh: gaitmodel.Vec3{gyroThigh[0][i], gyroThigh[1][i], gyroThigh[2][i]},
			AccShank:  gaitmodel.Vec3{accShank[0][i], accShank[1][i], accShank[2][i]},
			GyroShank: gaitmodel.Vec3{gyroShank[0][i], gyroShank[1][i], gyroShank[2][i]},
		}
	}
	return out
}

// SetLogLevel adjusts the package-wide zerolog level, mirroring the
// teacher's habit of keeping logging configuration explicit rather than
// implicit in main().
func SetLogLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
