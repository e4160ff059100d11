package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

func TestUnpack_EmptyInputIsNotAnError(t *testing.T) {
	samples, err := Unpack(nil)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestUnpack_TruncatedRecordIsMalformed(t *testing.T) {
	_, err := Unpack(make([]byte, RecordSize-1))
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestUnpack_RoundTripsWithPack(t *testing.T) {
	want := []gaitmodel.SensorSample{
		{
			Timestamp: 0.008,
			AccThigh:  gaitmodel.Vec3{0.1, -0.2, 9.81},
			GyroThigh: gaitmodel.Vec3{1, 2, 3},
			AccShank:  gaitmodel.Vec3{-1, 0, 9.5},
			GyroShank: gaitmodel.Vec3{-10, 20, 0.5},
		},
		{
			Timestamp: 0.016,
			AccThigh:  gaitmodel.Vec3{0, 0, 9.81},
			GyroThigh: gaitmodel.Vec3{0, 0, 0},
			AccShank:  gaitmodel.Vec3{0, 0, 9.81},
			GyroShank: gaitmodel.Vec3{0, 0, 0},
		},
	}

	buf := Pack(want)
	require.Len(t, buf, RecordSize*len(want))

	got, err := Unpack(buf)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].Timestamp, got[i].Timestamp, 1e-9)
		assert.InDeltaSlice(t, want[i].AccThigh[:], got[i].AccThigh[:], 1e-6)
		assert.InDeltaSlice(t, want[i].GyroThigh[:], got[i].GyroThigh[:], 1e-6)
		assert.InDeltaSlice(t, want[i].AccShank[:], got[i].AccShank[:], 1e-6)
		assert.InDeltaSlice(t, want[i].GyroShank[:], got[i].GyroShank[:], 1e-6)
	}
}
