package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/toeicgenius/assessment_service/internal/logger"
)

const testSampleRate = 16000

// writeTone writes a mono 16-bit wav of a sine tone. amp2 takes over for
// the second half of the signal so tests can force an energy swing.
func writeTone(t *testing.T, path string, freq float64, seconds float64, amp1, amp2 float64) {
	t.Helper()

	n := int(seconds * testSampleRate)
	data := make([]int, n)
	for i := 0; i < n; i++ {
		amp := amp1
		if i >= n/2 {
			amp = amp2
		}
		data[i] = int(amp * 32767 * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate))
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, testSampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: testSampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 200, 1.0, 0.5, 0.5)

	m := NewMeter(logger.NewNop())
	got := m.Duration(path)
	if math.Abs(got-1.0) > 0.05 {
		t.Errorf("Duration = %v, want ~1.0s", got)
	}
}

func TestDuration_UnreadableFile(t *testing.T) {
	t.Parallel()

	m := NewMeter(logger.NewNop())
	if got := m.Duration(filepath.Join(t.TempDir(), "missing.wav")); got != fallbackDuration {
		t.Errorf("Duration = %v, want fallback %v", got, fallbackDuration)
	}
}

func TestIntonationScore_SteadyTone(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "steady.wav")
	writeTone(t, path, 200, 2.0, 0.5, 0.5)

	m := NewMeter(logger.NewNop())
	if got := m.IntonationScore(path); got != baseIntonation {
		t.Errorf("IntonationScore = %d, want base %d for flat prosody", got, baseIntonation)
	}
}

func TestIntonationScore_EnergySwing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "swing.wav")
	writeTone(t, path, 200, 2.0, 0.9, 0.05)

	m := NewMeter(logger.NewNop())
	want := baseIntonation + intonationBonus
	if got := m.IntonationScore(path); got != want {
		t.Errorf("IntonationScore = %d, want %d with energy variation", got, want)
	}
}

func TestIntonationScore_UnreadableFile(t *testing.T) {
	t.Parallel()

	m := NewMeter(logger.NewNop())
	if got := m.IntonationScore(filepath.Join(t.TempDir(), "missing.wav")); got != failureIntonation {
		t.Errorf("IntonationScore = %d, want neutral %d", got, failureIntonation)
	}
}
