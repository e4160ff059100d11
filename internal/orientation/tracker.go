// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

const degToRad = math.Pi / 180

// Track runs one Madgwick filter per sensor over the whole session and
// produces the per-sample orientation record the rest of the pipeline
// consumes: thigh/shank Euler angles (degrees), knee angle, and a
// gravity-compensated vertical acceleration trace.
//
// It also returns the session-wide sagittal gyro trace (rad/s) for the
// shank, chosen as the axis of maximum standard deviation across the whole
// session, used downstream by the cycle detector.
func Track(samples []gaitmodel.SensorSample, fs float64) (orient []gaitmodel.OrientationSample, sagittalGyroRadPerSec []float64, sagittalAxis int) {
	dt := 1.0 / fs
	thighFilter := NewMadgwick(DefaultBeta)
	shankFilter := NewMadgwick(DefaultBeta)

	sagittalAxis = selectSagittalAxis(samples)

	orient = make([]gaitmodel.OrientationSample, len(samples))
	sagittalGyroRadPerSec = make([]float64, len(samples))

	for i, s := range samples {
		thighGyroRad := [3]float64{s.GyroThigh[0] * degToRad, s.GyroThigh[1] * degToRad, s.GyroThigh[2] * degToRad}
		shankGyroRad := [3]float64{s.GyroShank[0] * degToRad, s.GyroShank[1] * degToRad, s.GyroShank[2] * degToRad}

		thighFilter.Update([3]float64{s.AccThigh[0], s.AccThigh[1], s.AccThigh[2]}, thighGyroRad, dt)
		shankFilter.Update([3]float64{s.AccShank[0], s.AccShank[1], s.AccShank[2]}, shankGyroRad, dt)

		thighEuler := thighFilter.Quaternion().ToEuler()
		shankEuler := shankFilter.Quaternion().ToEuler()

		thighPitchDeg := thighEuler.Pitch / degToRad
		shankPitchDeg := shankEuler.Pitch / degToRad

		worldAcc := shankFilter.Quaternion().RotateVector([3]float64{s.AccShank[0], s.AccShank[1], s.AccShank[2]})
		verticalAcc := worldAcc[2] - gravityMS2

		orient[i] = gaitmodel.OrientationSample{
			ThighRoll:  thighEuler.Roll / degToRad,
			ThighPitch: thighPitchDeg,
			ThighYaw:   thighEuler.Yaw / degToRad,
			ShankRoll:  shankEuler.Roll / degToRad,
			ShankPitch: shankPitchDeg,
			ShankYaw:   shankEuler.Yaw / degToRad,
			KneeAngle:  thighPitchDeg - shankPitchDeg,
			VerticalAcc: verticalAcc,
		}
		sagittalGyroRadPerSec[i] = shankGyroRad[sagittalAxis]
	}

	return orient, sagittalGyroRadPerSec, sagittalAxis
}

// gravityMS2 is standard gravity, matching calibration.GravityMS2 without
// creating an import cycle between the two packages.
const gravityMS2 = 9.81

// selectSagittalAxis picks the shank gyro channel with the largest standard
// deviation across the whole session, robust to sensor mount orientation.
func selectSagittalAxis(samples []gaitmodel.SensorSample) int {
	if len(samples) == 0 {
		return 1
	}
	channels := [3][]float64{
		make([]float64, len(samples)),
		make([]float64, len(samples)),
		make([]float64, len(samples)),
	}
	for i, s := range samples {
		channels[0][i] = s.GyroShank[0]
		channels[1][i] = s.GyroShank[1]
		channels[2][i] = s.GyroShank[2]
	}

	best := 0
	bestStd := -1.0
	for axis := 0; axis < 3; axis++ {
		_, std := stat.MeanStdDev(channels[axis], nil)
		if std > bestStd {
			bestStd = std
			best = axis
		}
	}
	return best
}
