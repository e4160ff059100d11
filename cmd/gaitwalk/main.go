// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/relabs-tech/gaitwalk/internal/calibration"
	"github.com/relabs-tech/gaitwalk/internal/config"
	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
	"github.com/relabs-tech/gaitwalk/internal/pipeline"
)

// fileStore is a calibration.Store backed by one JSON blob per device under
// a directory, named <deviceID>.json.
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
	return os.WriteFile(filepath.Join(f.dir, deviceID+".json"), blob, 0o644)
}

func main() {
	configPath := flag.String("config", "./gaitwalk.conf", "path to configuration file")
	sessionPath := flag.String("session", "", "path to a raw binary session file")
	calDir := flag.String("cal-dir", "./calibration", "directory of per-device calibration blobs")
	sessionID := flag.String("session-id", "", "session identifier")
	userID := flag.String("user-id", "", "user identifier")
	deviceID := flag.String("device-id", "", "device identifier")
	heightCM := flag.Float64("height-cm", 0, "subject height in centimeters (0 = unset)")
	flag.Parse()

	if *sessionPath == "" {
		log.Fatalf("fatal: -session is required")
	}

	if err := config.InitGlobal(*configPath); err != nil {
		log.Printf("no usable config at %s (%v); using built-in defaults", *configPath, err)
	}

	raw, err := os.ReadFile(*sessionPath)
	if err != nil {
		log.Fatalf("fatal: reading session file: %v", err)
	}

	meta := gaitmodel.SessionMetadata{
		SessionID: *sessionID,
		UserID:    *userID,
		DeviceID:  *deviceID,
		StartTime: time.Now(),
		HeightM:   *heightCM / 100,
	}

	store := calibration.Store(fileStore{dir: *calDir})

	summary, err := pipeline.Run(context.Background(), raw, meta, store)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		log.Fatalf("fatal: encoding summary: %v", err)
	}
}
