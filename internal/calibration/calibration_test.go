package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

func repeat(n int, v gaitmodel.Vec3) []gaitmodel.Vec3 {
	out := make([]gaitmodel.Vec3, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestFactoryCalibrate_RecoversKnownBiasAndScale(t *testing.T) {
	// Simulate a sensor with acc_bias=(0.1,-0.2,0.05), acc_scale=(1,1,1).
	bias := gaitmodel.Vec3{0.1, -0.2, 0.05}
	const g = GravityMS2

	var acc []gaitmodel.Vec3
	var ranges [6]PoseRange
	poses := []gaitmodel.Vec3{
		{g, 0, 0}, {-g, 0, 0},
		{0, g, 0}, {0, -g, 0},
		{0, 0, g}, {0, 0, -g},
	}
	for i, p := range poses {
		ranges[i] = PoseRange{Start: len(acc), End: len(acc) + 50}
		reading := gaitmodel.Vec3{p[0] + bias[0], p[1] + bias[1], p[2] + bias[2]}
		acc = append(acc, repeat(50, reading)...)
	}
	gyro := repeat(len(acc), gaitmodel.Vec3{1, 2, 3})

	cal, err := FactoryCalibrate(acc, gyro, ranges)
	require.NoError(t, err)
	assert.InDelta(t, bias[0], cal.AccBias[0], 1e-9)
	assert.InDelta(t, bias[1], cal.AccBias[1], 1e-9)
	assert.InDelta(t, bias[2], cal.AccBias[2], 1e-9)
	assert.InDelta(t, 1.0, cal.AccScale[0], 1e-9)
	assert.InDelta(t, 1.0, cal.AccScale[1], 1e-9)
	assert.InDelta(t, 1.0, cal.AccScale[2], 1e-9)
	assert.InDelta(t, 1.0, cal.GyroBias[0], 1e-9)
}

func TestFactoryCalibrate_RejectsEmptyRange(t *testing.T) {
	acc := repeat(10, gaitmodel.Vec3{})
	gyro := repeat(10, gaitmodel.Vec3{})
	var ranges [6]PoseRange
	ranges[0] = PoseRange{Start: 0, End: 0}
	_, err := FactoryCalibrate(acc, gyro, ranges)
	require.ErrorIs(t, err, ErrBadCalibration)
}

func TestAlignToGravity_IdentityWhenAlreadyAligned(t *testing.T) {
	acc := repeat(200, gaitmodel.Vec3{0, 0, -GravityMS2})
	cal := gaitmodel.DefaultSensorCalibration()
	r := AlignToGravity(acc, cal, 125)
	assert.InDelta(t, 1.0, r[0][0], 1e-3)
	assert.InDelta(t, 1.0, r[1][1], 1e-3)
	assert.InDelta(t, 1.0, r[2][2], 1e-3)
}

func TestAlignToGravity_RecoversVerticalWhenAntiparallel(t *testing.T) {
	acc := repeat(200, gaitmodel.Vec3{0, 0, GravityMS2})
	cal := gaitmodel.DefaultSensorCalibration()
	r := AlignToGravity(acc, cal, 125)

	rotated := gaitmodel.Vec3{
		r[0][0]*0 + r[0][1]*0 + r[0][2]*1,
		r[1][0]*0 + r[1][1]*0 + r[1][2]*1,
		r[2][0]*0 + r[2][1]*0 + r[2][2]*1,
	}
	assert.InDelta(t, -1.0, rotated[2], 1e-3)
}

func TestApply_IsPureAndRemovesBiasAndScale(t *testing.T) {
	cal := gaitmodel.SensorCalibration{
		AccBias:  gaitmodel.Vec3{1, 1, 1},
		AccScale: gaitmodel.Vec3{2, 2, 2},
	}
	v := gaitmodel.Vec3{3, 3, 3}
	out := Apply(v, cal)
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.Equal(t, gaitmodel.Vec3{3, 3, 3}, v, "Apply must not mutate its input")
}
