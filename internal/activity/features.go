// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package activity windows a calibrated, pre-filtered session, extracts
// per-window motion features, classifies each window into one of the fixed
// activity classes, and merges adjacent same-label windows into segments.
package activity

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gaitwalk/internal/gaitmodel"
)

const (
	freqBandLow  = 0.5
	freqBandHigh = 5.0
	epsilon      = 1e-9
)

// extractFeatures computes the full feature set for one window of samples.
func extractFeatures(win []gaitmodel.SensorSample, fs float64) gaitmodel.ActivityFeatures {
	n := len(win)
	magThigh := make([]float64, n)
	magShank := make([]float64, n)
	l1Thigh := make([]float64, n)
	l1Shank := make([]float64, n)
	vertShank := make([]float64, n)

	for i, s := range win {
		magThigh[i] = norm3(s.AccThigh)
		magShank[i] = norm3(s.AccShank)
		l1Thigh[i] = l1(s.AccThigh)
		l1Shank[i] = l1(s.AccShank)
		vertShank[i] = s.AccShank[2]
	}

	smaThigh := stat.Mean(l1Thigh, nil)
	smaShank := stat.Mean(l1Shank, nil)
	magMeanThigh, magStdThigh := stat.MeanStdDev(magThigh, nil)
	magMeanShank, magStdShank := stat.MeanStdDev(magShank, nil)
	magRatio := magMeanShank / (magMeanThigh + epsilon)

	specEnergyThigh, domFreqThigh := bandSpectrum(magThigh, fs)
	specEnergyShank, domFreqShank := bandSpectrum(magShank, fs)

	cadence := domFreqShank * 120

	peakCount := countPeaks(magShank, 2.5*9.81, int(0.2*fs))

	_, vertVar := stat.MeanVariance(vertShank, nil)

	return gaitmodel.ActivityFeatures{
		SMAThigh:            smaThigh,
		SMAShank:            smaShank,
		MagMeanThigh:        magMeanThigh,
		MagStdThigh:         magStdThigh,
		MagMeanShank:        magMeanShank,
		MagStdShank:         magStdShank,
		MagRatio:            magRatio,
		SpectralEnergyThigh: specEnergyThigh,
		SpectralEnergyShank: specEnergyShank,
		DominantFreqThigh:   domFreqThigh,
		DominantFreqShank:   domFreqShank,
		Cadence:             cadence,
		PeakCountShank:      peakCount,
		VerticalVariance:    vertVar,
	}
}

func norm3(v gaitmodel.Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func l1(v gaitmodel.Vec3) float64 {
	return math.Abs(v[0]) + math.Abs(v[1]) + math.Abs(v[2])
}

// bandSpectrum Hann-windows x, takes its real FFT, and returns the summed
// power and the dominant frequency within [freqBandLow, freqBandHigh] Hz.
func bandSpectrum(x []float64, fs float64) (energy, dominantFreq float64) {
	n := len(x)
	if n < 2 {
		return 0, 0
	}
	windowed := make([]float64, n)
	copy(windowed, x)
	window.Hann(windowed)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, windowed)

	var bestPower float64
	var bestFreq float64
	for k, c := range coeffs {
		freq := float64(k) * fs / float64(n)
		if freq < freqBandLow || freq > freqBandHigh {
			continue
		}
		power := real(c)*real(c) + imag(c)*imag(c)
		energy += power
		if power > bestPower {
			bestPower = power
			bestFreq = freq
		}
	}
	return energy, bestFreq
}

// countPeaks counts local maxima of x above height with a minimum index
// separation of minSeparation.
func countPeaks(x []float64, height float64, minSeparation int) int {
	count := 0
	lastPeak := -minSeparation - 1
	for i := 1; i < len(x)-1; i++ {
		if x[i] < height {
			continue
		}
		if x[i] >= x[i-1] && x[i] >= x[i+1] && i-lastPeak >= minSeparation {
			count++
			lastPeak = i
		}
	}
	return count
}
