// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ingest unpacks the raw dual-sensor binary record stream into a
// typed sample sequence.
package ingest

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

// RecordSize is the fixed, packed, little-endian size of one sample record:
// 1 (header) + 8 (timestamp) + 4*3*4 (four float32[3] triplets).
const RecordSize = 1 + 8 + 4*3*4

// ErrMalformedInput is returned when the buffer length is not a multiple of
// RecordSize, i.e. a truncated trailing record.
var ErrMalformedInput = fmt.Errorf("ingest: truncated or unparseable binary record stream")

// Unpack parses a raw byte buffer into a contiguous sequence of
// SensorSample. An empty buffer yields an empty, non-error result.
func Unpack(buf []byte) ([]gaitmodel.SensorSample, error) {
	if len(buf)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: length %d not a multiple of record size %d", ErrMalformedInput, len(buf), RecordSize)
	}
	n := len(buf) / RecordSize
	out := make([]gaitmodel.SensorSample, n)
	for i := 0; i < n; i++ {
		rec := buf[i*RecordSize : (i+1)*RecordSize]
		out[i] = decodeRecord(rec)
	}
	return out, nil
}

func decodeRecord(rec []byte) gaitmodel.SensorSample {
	// rec[0] is the header byte; the wire format doesn't give it semantic
	// meaning beyond sample framing, so it isn't surfaced further.
	off := 1
	ts := math.Float64frombits(binary.LittleEndian.Uint64(rec[off : off+8]))
	off += 8

	readVec3 := func() gaitmodel.Vec3 {
		var v gaitmodel.Vec3
		for i := 0; i < 3; i++ {
			bits := binary.LittleEndian.Uint32(rec[off : off+4])
			v[i] = float64(math.Float32frombits(bits))
			off += 4
		}
		return v
	}

	return gaitmodel.SensorSample{
		Timestamp: ts,
		AccThigh:  readVec3(),
		GyroThigh: readVec3(),
		AccShank:  readVec3(),
		GyroShank: readVec3(),
	}
}

// Pack is the inverse of Unpack, used by tests to build synthetic fixtures
// and round-trip against Unpack.
func Pack(samples []gaitmodel.SensorSample) []byte {
	buf := make([]byte, len(samples)*RecordSize)
	for i, s := range samples {
		rec := buf[i*RecordSize : (i+1)*RecordSize]
		rec[0] = 0
		off := 1
		binary.LittleEndian.PutUint64(rec[off:off+8], math.Float64bits(s.Timestamp))
		off += 8
		writeVec3 := func(v gaitmodel.Vec3) {
			for i := 0; i < 3; i++ {
				binary.LittleEndian.PutUint32(rec[off:off+4], math.Float32bits(float32(v[i])))
				off += 4
			}
		}
		writeVec3(s.AccThigh)
		writeVec3(s.GyroThigh)
		writeVec3(s.AccShank)
		writeVec3(s.GyroShank)
	}
	return buf
}
