// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibrate/main.go
//
// Offline six-pose factory calibration for one body-worn sensor.
//
// Unlike a live guided wizard, this reads a single raw capture file holding
// the sensor held still in the fixed pose order +X, -X, +Y, -Y, +Z, -Z, and
// six pose boundaries (in seconds, relative to the start of the capture)
// given on the command line. It computes bias/scale/gyro-bias via
// internal/calibration.FactoryCalibrate and writes the resulting device
// calibration blob as JSON under -cal-dir.
//
// Run:
//
//	go run ./cmd/calibrate -session thigh_calibration.bin -device thigh-01 \
//	    -poses "0-6,7-13,14-20,21-27,28-34,35-41"
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/gaitwalk/internal/calibration"
	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
	"github.com/relabs-tech/gaitwalk/internal/ingest"
)

type fileStore struct {
	dir string
}

func (f fileStore) Load(deviceID string) ([]byte, bool, error) {
	raw, err := os.ReadFile(filepath.Join(f.dir, deviceID+".json"))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (f fileStore) Save(deviceID string, blob []byte) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.dir, deviceID+".json"), blob, 0o644)
}

func main() {
	sessionPath := flag.String("session", "", "path to a raw binary capture of the six-pose sequence (+X,-X,+Y,-Y,+Z,-Z)")
	deviceID := flag.String("device", "", "device identifier to store the calibration under")
	slot := flag.String("slot", "sensor1", "which device sensor this capture calibrates: sensor1 (thigh) or sensor2 (shank)")
	calDir := flag.String("cal-dir", "./calibration", "directory to write the device calibration blob into")
	posesFlag := flag.String("poses", "", "six comma-separated start-end second ranges, in pose order +X,-X,+Y,-Y,+Z,-Z, e.g. \"0-6,7-13,14-20,21-27,28-34,35-41\"")
	flag.Parse()

	if *sessionPath == "" || *deviceID == "" || *posesFlag == "" {
		log.Fatalf("fatal: -session, -device, and -poses are all required")
	}
	if *slot != "sensor1" && *slot != "sensor2" {
		log.Fatalf("fatal: -slot must be sensor1 or sensor2, got %q", *slot)
	}

	raw, err := os.ReadFile(*sessionPath)
	if err != nil {
		log.Fatalf("fatal: reading capture file: %v", err)
	}

	samples, err := ingest.Unpack(raw)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	ranges, err := parsePoseRanges(*posesFlag, gaitmodel.SampleRateHz)
	if err != nil {
		log.Fatalf("fatal: parsing -poses: %v", err)
	}

	isThigh := *slot == "sensor1"
	acc := make([]gaitmodel.Vec3, len(samples))
	gyro := make([]gaitmodel.Vec3, len(samples))
	for i, s := range samples {
		if isThigh {
			acc[i], gyro[i] = s.AccThigh, s.GyroThigh
		} else {
			acc[i], gyro[i] = s.AccShank, s.GyroShank
		}
	}

	cal, err := calibration.FactoryCalibrate(acc, gyro, ranges)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	fmt.Printf("acc_bias=%v acc_scale=%v gyro_bias=%v\n", cal.AccBias, cal.AccScale, cal.GyroBias)

	store := fileStore{dir: *calDir}
	dc, ok, err := calibration.Load(store, *deviceID)
	if err != nil {
		log.Fatalf("fatal: loading existing calibration: %v", err)
	}
	if !ok {
		dc = gaitmodel.DeviceCalibration{ID: *deviceID}
	}
	if isThigh {
		dc.Sensor1 = cal
	} else {
		dc.Sensor2 = cal
	}
	dc.LastUpdate = time.Now().Format("2006-01-02")

	if err := calibration.Save(store, dc); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	fmt.Printf("wrote calibration for device %q (%s) to %s\n", *deviceID, *slot, filepath.Join(*calDir, *deviceID+".json"))
}

// parsePoseRanges parses a "start-end,start-end,..." string of second
// offsets (six entries, fixed pose order) into sample-index PoseRanges.
func parsePoseRanges(s string, fs float64) ([6]calibration.PoseRange, error) {
	var out [6]calibration.PoseRange
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return out, fmt.Errorf("expected 6 ranges, got %d", len(parts))
	}
	for i, p := range parts {
		bounds := strings.SplitN(strings.TrimSpace(p), "-", 2)
		if len(bounds) != 2 {
			return out, fmt.Errorf("malformed range %q", p)
		}
		startSec, err := strconv.ParseFloat(bounds[0], 64)
		if err != nil {
			return out, fmt.Errorf("malformed range start %q: %w", p, err)
		}
		endSec, err := strconv.ParseFloat(bounds[1], 64)
		if err != nil {
			return out, fmt.Errorf("malformed range end %q: %w", p, err)
		}
		out[i] = calibration.PoseRange{
			Start: int(startSec * fs),
			End:   int(endSec * fs),
		}
	}
	return out, nil
}
