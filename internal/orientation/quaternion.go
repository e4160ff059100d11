// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation runs a Madgwick AHRS filter per sensor and extracts
// the Euler angles and gravity-compensated vertical acceleration the rest
// of the pipeline needs.
package orientation

import "math"

// Quaternion is a unit attitude quaternion in (w, x, y, z) order.
type Quaternion struct {
	W, X, Y, Z float64
}

// IdentityQuaternion is the no-rotation attitude.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

func (q Quaternion) normalize() Quaternion {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 {
		return IdentityQuaternion()
	}
	return Quaternion{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

// Euler holds roll/pitch/yaw in radians.
type Euler struct {
	Roll, Pitch, Yaw float64
}

// ToEuler extracts roll/pitch/yaw with the standard gimbal-lock clamp at
// |sin(pitch)| >= 1.
func (q Quaternion) ToEuler() Euler {
	w, x, y, z := q.W, q.X, q.Y, q.Z

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll := math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*y - z*x)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw := math.Atan2(sinyCosp, cosyCosp)

	return Euler{Roll: roll, Pitch: pitch, Yaw: yaw}
}

// RotateVector rotates v from the sensor frame into the world frame using
// this attitude quaternion: v_world = q * (0, v) * q_conj.
func (q Quaternion) RotateVector(v [3]float64) [3]float64 {
	// Expand the quaternion-vector-conjugate product directly rather than
	// building a full rotation matrix, since only a single vector is
	// rotated per sample.
	uw, ux, uy, uz := q.W, q.X, q.Y, q.Z
	vx, vy, vz := v[0], v[1], v[2]

	// t = 2 * cross(u.xyz, v)
	tx := 2 * (uy*vz - uz*vy)
	ty := 2 * (uz*vx - ux*vz)
	tz := 2 * (ux*vy - uy*vx)

	// v' = v + w*t + cross(u.xyz, t)
	rx := vx + uw*tx + (uy*tz - uz*ty)
	ry := vy + uw*ty + (uz*tx - ux*tz)
	rz := vz + uw*tz + (ux*ty - uy*tx)

	return [3]float64{rx, ry, rz}
}
