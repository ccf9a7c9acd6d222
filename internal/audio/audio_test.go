package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
)

func samples(t *testing.T, w *SquareWave, n int) []float32 {
	t.Helper()

	buf := make([]byte, n*bytesPerSample)
	read, err := w.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, len(buf), read)

	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*bytesPerSample:]))
	}
	return out
}

func TestSquareWaveSilentWhenInactive(t *testing.T) {
	w := NewSquareWave(Config{SampleRate: 8, Frequency: 2, Volume: 0.5})

	got := samples(t, w, 8)
	if diff := cmp.Diff(make([]float32, 8), got); diff != "" {
		t.Errorf("samples: (-want, +got)\n%s", diff)
	}
}

func TestSquareWaveActive(t *testing.T) {
	w := NewSquareWave(Config{SampleRate: 8, Frequency: 2, Volume: 0.5})
	w.SetActive(true)

	// Two samples per half cycle.
	want := []float32{0.5, 0.5, -0.5, -0.5, 0.5, 0.5, -0.5, -0.5}
	if diff := cmp.Diff(want, samples(t, w, 8)); diff != "" {
		t.Errorf("samples: (-want, +got)\n%s", diff)
	}
}

func TestSquareWavePhaseAdvancesWhileInactive(t *testing.T) {
	w := NewSquareWave(Config{SampleRate: 8, Frequency: 2, Volume: 0.5})

	samples(t, w, 2)
	w.SetActive(true)

	want := []float32{-0.5, -0.5, 0.5}
	if diff := cmp.Diff(want, samples(t, w, 3)); diff != "" {
		t.Errorf("samples: (-want, +got)\n%s", diff)
	}
}

func TestSquareWaveReadsWholeSamples(t *testing.T) {
	w := NewSquareWave(Config{})
	w.SetActive(true)

	n, err := w.Read(make([]byte, 10))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = w.Read(make([]byte, 3))
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	assert.Equal(t, DefaultSampleRate, cfg.SampleRate)
	assert.Equal(t, float64(DefaultFrequency), cfg.Frequency)
	assert.Equal(t, float32(DefaultVolume), cfg.Volume)
}

func TestSilentBeeper(t *testing.T) {
	b := NewSilent()
	b.SetActive(true)
	b.SetActive(false)
	assert.NoError(t, b.Close())
}
