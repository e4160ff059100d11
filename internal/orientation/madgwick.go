// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "math"

// DefaultBeta is the Madgwick filter's gyroscope-measurement-error gain.
const DefaultBeta = 0.1

// Madgwick is a single-sensor gradient-descent AHRS filter, structurally
// grounded on itohio-EasyRobot/x/math/filter/ahrs's accel+gyro update path
// (calculateWOMag), re-expressed in float64 and stripped of the
// magnetometer term this sensor rig doesn't have.
type Madgwick struct {
	beta float64
	q    Quaternion
}

// NewMadgwick creates a filter starting at the identity attitude.
func NewMadgwick(beta float64) *Madgwick {
	return &Madgwick{beta: beta, q: IdentityQuaternion()}
}

// Quaternion returns the current attitude estimate.
func (m *Madgwick) Quaternion() Quaternion {
	return m.q
}

// Update runs one gradient-descent step. acc is in any consistent unit
// (only direction matters); gyro must be in rad/s. dt is the sample
// period in seconds.
func (m *Madgwick) Update(acc, gyro [3]float64, dt float64) {
	q := m.q
	gx, gy, gz := gyro[0], gyro[1], gyro[2]

	// Rate of change of quaternion from gyroscope.
	qDot := Quaternion{
		W: 0.5 * (-q.X*gx - q.Y*gy - q.Z*gz),
		X: 0.5 * (q.W*gx + q.Y*gz - q.Z*gy),
		Y: 0.5 * (q.W*gy - q.X*gz + q.Z*gx),
		Z: 0.5 * (q.W*gz + q.X*gy - q.Y*gx),
	}

	ax, ay, az := acc[0], acc[1], acc[2]
	norm := math.Sqrt(ax*ax + ay*ay + az*az)
	if norm > 0 {
		ax, ay, az = ax/norm, ay/norm, az/norm

		qw, qx, qy, qz := q.W, q.X, q.Y, q.Z

		// Gradient descent algorithm corrective step, accel-only (the
		// magnetometer term of the full 9-axis filter is omitted).
		f1 := 2*(qx*qz-qw*qy) - ax
		f2 := 2*(qw*qx+qy*qz) - ay
		f3 := 1 - 2*(qx*qx+qy*qy) - az

		j11 := -2 * qy
		j12 := 2 * qz
		j13 := -2 * qw
		j14 := 2 * qx

		j21 := 2 * qx
		j22 := 2 * qw
		j23 := 2 * qz
		j24 := 2 * qy

		j31 := 0.0
		j32 := -4 * qx
		j33 := -4 * qy
		j34 := 0.0

		gradW := j11*f1 + j21*f2 + j31*f3
		gradX := j12*f1 + j22*f2 + j32*f3
		gradY := j13*f1 + j23*f2 + j33*f3
		gradZ := j14*f1 + j24*f2 + j34*f3

		gradNorm := math.Sqrt(gradW*gradW + gradX*gradX + gradY*gradY + gradZ*gradZ)
		if gradNorm > 0 {
			gradW, gradX, gradY, gradZ = gradW/gradNorm, gradX/gradNorm, gradY/gradNorm, gradZ/gradNorm
		}

		qDot.W -= m.beta * gradW
		qDot.X -= m.beta * gradX
		qDot.Y -= m.beta * gradY
		qDot.Z -= m.beta * gradZ
	}

	q.W += qDot.W * dt
	q.X += qDot.X * dt
	q.Y += qDot.Y * dt
	q.Z += qDot.Z * dt

	m.q = q.normalize()
}
