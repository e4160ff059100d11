// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_PassesValidation(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.validate())
}

func TestLoad_OverridesOnlyGivenKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaitwalk.conf")
	content := "# comment\nCUTOFF_WALKING_HZ=7.5\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7.5, cfg.CutoffWalkingHz)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Default().CutoffStairsHz, cfg.CutoffStairsHz)
}

func TestLoad_RejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaitwalk.conf")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_REAL_KEY=1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInconsistentWindowing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaitwalk.conf")
	require.NoError(t, os.WriteFile(path, []byte("WINDOW_SIZE_SECONDS=1.0\nWINDOW_OVERLAP_SECONDS=1.0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestGet_NilBeforeInitGlobal(t *testing.T) {
	assert.Nil(t, Get())
}
