// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"encoding/json"
	"fmt"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

// wireSensor mirrors the JSON shape of one sensor's calibration blob.
type wireSensor struct {
	AccBias        [3]float64    `json:"acc_bias"`
	AccScale       [3]float64    `json:"acc_scale"`
	GyroBias       [3]float64    `json:"gyro_bias"`
	RotationMatrix *[3][3]float64 `json:"rotation_matrix"`
}

// wireDevice mirrors the JSON shape of a full device calibration blob.
type wireDevice struct {
	ID         string     `json:"id"`
	LastUpdate string     `json:"last_update"`
	Sensor1    wireSensor `json:"sensor1"`
	Sensor2    wireSensor `json:"sensor2"`
}

// Store is a minimal key/value persistence seam for device calibration
// blobs, injected by callers so this package doesn't depend on any
// particular blob store.
type Store interface {
	Load(deviceID string) ([]byte, bool, error)
	Save(deviceID string, blob []byte) error
}

// Load reads and decodes a device's calibration blob.
func Load(store Store, deviceID string) (gaitmodel.DeviceCalibration, bool, error) {
	raw, ok, err := store.Load(deviceID)
	if err != nil {
		return gaitmodel.DeviceCalibration{}, false, fmt.Errorf("calibration: load %q: %w", deviceID, err)
	}
	if !ok {
		return gaitmodel.DeviceCalibration{}, false, nil
	}

	var w wireDevice
	if err := json.Unmarshal(raw, &w); err != nil {
		return gaitmodel.DeviceCalibration{}, false, fmt.Errorf("%w: malformed calibration blob for %q: %v", ErrBadCalibration, deviceID, err)
	}

	return gaitmodel.DeviceCalibration{
		ID:         w.ID,
		LastUpdate: w.LastUpdate,
		Sensor1:    fromWire(w.Sensor1),
		Sensor2:    fromWire(w.Sensor2),
	}, true, nil
}

// Save encodes and writes a device's calibration blob.
func Save(store Store, dc gaitmodel.DeviceCalibration) error {
	w := wireDevice{
		ID:         dc.ID,
		LastUpdate: dc.LastUpdate,
		Sensor1:    toWire(dc.Sensor1),
		Sensor2:    toWire(dc.Sensor2),
	}
	raw, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("calibration: marshal %q: %w", dc.ID, err)
	}
	if err := store.Save(dc.ID, raw); err != nil {
		return fmt.Errorf("calibration: save %q: %w", dc.ID, err)
	}
	return nil
}

func fromWire(w wireSensor) gaitmodel.SensorCalibration {
	scale := w.AccScale
	if scale == ([3]float64{}) {
		scale = [3]float64{1, 1, 1}
	}
	return gaitmodel.SensorCalibration{
		AccBias:        gaitmodel.Vec3(w.AccBias),
		AccScale:       gaitmodel.Vec3(scale),
		GyroBias:       gaitmodel.Vec3(w.GyroBias),
		GyroScale:      gaitmodel.Vec3{1, 1, 1},
		RotationMatrix: w.RotationMatrix,
	}
}

func toWire(c gaitmodel.SensorCalibration) wireSensor {
	return wireSensor{
		AccBias:        [3]float64(c.AccBias),
		AccScale:       [3]float64(c.AccScale),
		GyroBias:       [3]float64(c.GyroBias),
		RotationMatrix: c.RotationMatrix,
	}
}
