// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration produces per-device sensor calibration (factory
// bias/scale plus a gravity-alignment rotation) and applies it to a session.
package calibration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

// GravityMS2 is standard gravity in m/s^2, used to scale the factory
// accelerometer calibration.
const GravityMS2 = 9.81

// ErrBadCalibration is returned when factory calibration input doesn't
// satisfy the six-range contract.
var ErrBadCalibration = fmt.Errorf("calibration: bad calibration input")

// PoseRange is a half-open [Start, End) index range of samples collected at
// rest in one of the six axis-up poses.
type PoseRange struct {
	Start, End int
}

// FactoryCalibrate computes acc_bias/acc_scale/gyro_bias from six static
// poses, in the fixed order +X, -X, +Y, -Y, +Z, -Z. acc and gyro are the raw
// (uncalibrated) per-sample readings of one physical sensor, same length.
func FactoryCalibrate(acc, gyro []gaitmodel.Vec3, ranges [6]PoseRange) (gaitmodel.SensorCalibration, error) {
	for _, r := range ranges {
		if r.End <= r.Start || r.Start < 0 || r.End > len(acc) {
			return gaitmodel.SensorCalibration{}, fmt.Errorf("%w: empty or out-of-range pose window %+v", ErrBadCalibration, r)
		}
	}

	axisMean := func(r PoseRange, axis int) float64 {
		var sum float64
		for i := r.Start; i < r.End; i++ {
			sum += acc[i][axis]
		}
		return sum / float64(r.End-r.Start)
	}

	var bias, scale gaitmodel.Vec3
	for axis := 0; axis < 3; axis++ {
		plus := axisMean(ranges[axis*2], axis)
		minus := axisMean(ranges[axis*2+1], axis)
		scale[axis] = (plus - minus) / (2 * GravityMS2)
		bias[axis] = (plus + minus) / 2
		if scale[axis] == 0 {
			return gaitmodel.SensorCalibration{}, fmt.Errorf("%w: zero acc_scale on axis %d", ErrBadCalibration, axis)
		}
	}

	var gyroSum gaitmodel.Vec3
	var gyroCount int
	for _, r := range ranges {
		for i := r.Start; i < r.End; i++ {
			for axis := 0; axis < 3; axis++ {
				gyroSum[axis] += gyro[i][axis]
			}
			gyroCount++
		}
	}
	gyroBias := gaitmodel.Vec3{gyroSum[0] / float64(gyroCount), gyroSum[1] / float64(gyroCount), gyroSum[2] / float64(gyroCount)}

	return gaitmodel.SensorCalibration{
		AccBias:   bias,
		AccScale:  scale,
		GyroBias:  gyroBias,
		GyroScale: gaitmodel.Vec3{1, 1, 1},
	}, nil
}

// AlignToGravity computes the rotation matrix sending the measured gravity
// direction (averaged over the first min(1.5s*fs, len) samples, after only
// bias/scale have been applied) to (0, 0, -1).
func AlignToGravity(acc []gaitmodel.Vec3, cal gaitmodel.SensorCalibration, fs float64) [3][3]float64 {
	n := int(1.5 * fs)
	if n > len(acc) || n <= 0 {
		n = len(acc)
	}

	var sum gaitmodel.Vec3
	for i := 0; i < n; i++ {
		corrected := biasScale(acc[i], cal)
		sum[0] += corrected[0]
		sum[1] += corrected[1]
		sum[2] += corrected[2]
	}
	mean := gaitmodel.Vec3{sum[0] / float64(n), sum[1] / float64(n), sum[2] / float64(n)}

	norm := math.Sqrt(mean[0]*mean[0] + mean[1]*mean[1] + mean[2]*mean[2])
	if norm == 0 {
		return identity3x3()
	}
	measured := [3]float64{mean[0] / norm, mean[1] / norm, mean[2] / norm}
	return computeRotationMatrix(measured)
}

// computeRotationMatrix implements the Rodrigues-formula rotation sending
// the unit vector g to (0, 0, -1), with explicit handling of the two
// singular configurations.
func computeRotationMatrix(g [3]float64) [3][3]float64 {
	target := [3]float64{0, 0, -1}
	cosAngle := g[0]*target[0] + g[1]*target[1] + g[2]*target[2]

	if cosAngle > 0.9999 {
		return identity3x3()
	}
	if cosAngle < -0.9999 {
		// Antiparallel: rotate 180 degrees about any axis perpendicular to g.
		perp := perpendicularTo(g)
		return rodrigues(perp, math.Pi)
	}

	axis := cross(g, target)
	axisNorm := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	axis = [3]float64{axis[0] / axisNorm, axis[1] / axisNorm, axis[2] / axisNorm}
	angle := math.Acos(clamp(cosAngle, -1, 1))
	return rodrigues(axis, angle)
}

// rodrigues builds the rotation matrix for a unit axis and angle using the
// skew-symmetric matrix form R = I + sin(a) K + (1-cos(a)) K^2.
func rodrigues(axis [3]float64, angle float64) [3][3]float64 {
	k := mat.NewDense(3, 3, []float64{
		0, -axis[2], axis[1],
		axis[2], 0, -axis[0],
		-axis[1], axis[0], 0,
	})
	var k2 mat.Dense
	k2.Mul(k, k)

	var r mat.Dense
	r.Scale(math.Sin(angle), k)

	var k2scaled mat.Dense
	k2scaled.Scale(1-math.Cos(angle), &k2)

	var sum mat.Dense
	sum.Add(&r, &k2scaled)

	ident := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	var out mat.Dense
	out.Add(ident, &sum)

	var result [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			result[i][j] = out.At(i, j)
		}
	}
	return result
}

func perpendicularTo(v [3]float64) [3]float64 {
	// Any vector not parallel to v works; pick the coordinate axis least
	// aligned with v and cross it in.
	ref := [3]float64{1, 0, 0}
	if math.Abs(v[0]) > 0.9 {
		ref = [3]float64{0, 1, 0}
	}
	p := cross(v, ref)
	norm := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	return [3]float64{p[0] / norm, p[1] / norm, p[2] / norm}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func identity3x3() [3][3]float64 {
	return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func biasScale(v gaitmodel.Vec3, cal gaitmodel.SensorCalibration) gaitmodel.Vec3 {
	return gaitmodel.Vec3{
		(v[0] - cal.AccBias[0]) / cal.AccScale[0],
		(v[1] - cal.AccBias[1]) / cal.AccScale[1],
		(v[2] - cal.AccBias[2]) / cal.AccScale[2],
	}
}

// Apply returns a new vector with bias/scale correction and (if present)
// the gravity-alignment rotation applied: v' = R * ((v - bias) / scale).
// The input is never mutated.
func Apply(v gaitmodel.Vec3, cal gaitmodel.SensorCalibration) gaitmodel.Vec3 {
	corrected := gaitmodel.Vec3{
		(v[0] - cal.AccBias[0]) / cal.AccScale[0],
		(v[1] - cal.AccBias[1]) / cal.AccScale[1],
		(v[2] - cal.AccBias[2]) / cal.AccScale[2],
	}
	if cal.RotationMatrix == nil {
		return corrected
	}
	r := cal.RotationMatrix
	return gaitmodel.Vec3{
		r[0][0]*corrected[0] + r[0][1]*corrected[1] + r[0][2]*corrected[2],
		r[1][0]*corrected[0] + r[1][1]*corrected[1] + r[1][2]*corrected[2],
		r[2][0]*corrected[0] + r[2][1]*corrected[1] + r[2][2]*corrected[2],
	}
}

// ApplyGyro applies bias correction (no scale division other than the
// default unit gyro_scale) and the same rotation as Apply.
func ApplyGyro(v gaitmodel.Vec3, cal gaitmodel.SensorCalibration) gaitmodel.Vec3 {
	corrected := gaitmodel.Vec3{
		(v[0] - cal.GyroBias[0]) / cal.GyroScale[0],
		(v[1] - cal.GyroBias[1]) / cal.GyroScale[1],
		(v[2] - cal.GyroBias[2]) / cal.GyroScale[2],
	}
	if cal.RotationMatrix == nil {
		return corrected
	}
	r := cal.RotationMatrix
	return gaitmodel.Vec3{
		r[0][0]*corrected[0] + r[0][1]*corrected[1] + r[0][2]*corrected[2],
		r[1][0]*corrected[0] + r[1][1]*corrected[1] + r[1][2]*corrected[2],
		r[2][0]*corrected[0] + r[2][1]*corrected[1] + r[2][2]*corrected[2],
	}
}

// ApplySession applies thigh and shank calibration to every sample of a
// session, returning a new slice; the input is not mutated.
func ApplySession(samples []gaitmodel.SensorSample, thigh, shank gaitmodel.SensorCalibration) []gaitmodel.SensorSample {
	out := make([]gaitmodel.SensorSample, len(samples))
	for i, s := range samples {
		out[i] = gaitmodel.SensorSample{
			Timestamp: s.Timestamp,
			AccThigh:  Apply(s.AccThigh, thigh),
			GyroThigh: ApplyGyro(s.GyroThigh, thigh),
			AccShank:  Apply(s.AccShank, shank),
			GyroShank: ApplyGyro(s.GyroShank, shank),
		}
	}
	return out
}
