// Package audio measures wav files locally: duration for pacing and a
// prosody proxy for intonation scoring. Nothing here touches the network.
package audio

import (
	"math"
	"os"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

const (
	// fallbackDuration is used when the file cannot be decoded; it matches
	// the transcription wait ceiling so a broken file never divides by zero.
	fallbackDuration = 1200.0

	failureIntonation = 75

	baseIntonation    = 70
	intonationBonus   = 15
	maxIntonation     = 100
	pitchStdThreshold = 20.0 // Hz
	energyStdThresh   = 0.05 // normalized RMS

	frameSize = 2048
	hopSize   = 512

	// Voiced-speech pitch range; frames outside it are ignored.
	minPitchHz = 75.0
	maxPitchHz = 600.0
)

type Meter struct {
	log zerolog.Logger
}

func NewMeter(log zerolog.Logger) *Meter {
	return &Meter{log: log}
}

// Duration returns the wav length in seconds, or the fallback ceiling
// when the file is unreadable.
func (m *Meter) Duration(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("audio open failed, using fallback duration")
		return fallbackDuration
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	dur, err := d.Duration()
	if err != nil || dur <= 0 {
		m.log.Warn().Err(err).Str("path", path).Msg("wav duration failed, using fallback duration")
		return fallbackDuration
	}
	return dur.Seconds()
}

// IntonationScore grades prosody variation: 70 base, +15 for pitch
// variation above 20 Hz std, +15 for energy variation above 0.05 RMS
// std, capped at 100. Any decode failure yields the neutral 75.
func (m *Meter) IntonationScore(path string) int {
	samples, sampleRate, err := readSamples(path)
	if err != nil || len(samples) < frameSize || sampleRate <= 0 {
		m.log.Warn().Err(err).Str("path", path).Msg("intonation analysis failed, using neutral score")
		return failureIntonation
	}

	pitchStd := pitchStdDev(samples, sampleRate)
	energyStd := rmsStdDev(samples)

	score := baseIntonation
	if pitchStd > pitchStdThreshold {
		score += intonationBonus
	}
	if energyStd > energyStdThresh {
		score += intonationBonus
	}
	if score > maxIntonation {
		score = maxIntonation
	}
	return score
}

// readSamples decodes the full PCM stream to floats in [-1, 1].
func readSamples(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, os.ErrInvalid
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := math.Pow(2, float64(bitDepth-1))

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}
	return samples, buf.Format.SampleRate, nil
}

// pitchStdDev estimates per-frame fundamental frequency from the zero
// crossing rate and returns the standard deviation across voiced frames.
func pitchStdDev(samples []float64, sampleRate int) float64 {
	var pitches []float64
	for start := 0; start+frameSize <= len(samples); start += hopSize {
		frame := samples[start : start+frameSize]

		crossings := 0
		for i := 1; i < len(frame); i++ {
			if (frame[i-1] >= 0) != (frame[i] >= 0) {
				crossings++
			}
		}
		// two crossings per period
		pitch := float64(crossings) / 2.0 * float64(sampleRate) / float64(frameSize)
		if pitch >= minPitchHz && pitch <= maxPitchHz {
			pitches = append(pitches, pitch)
		}
	}
	return stdDev(pitches)
}

// rmsStdDev is the standard deviation of per-frame RMS energy.
func rmsStdDev(samples []float64) float64 {
	var energies []float64
	for start := 0; start+frameSize <= len(samples); start += hopSize {
		frame := samples[start : start+frameSize]
		sum := 0.0
		for _, s := range frame {
			sum += s * s
		}
		energies = append(energies, math.Sqrt(sum/float64(len(frame))))
	}
	return stdDev(energies)
}
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}
