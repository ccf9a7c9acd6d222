// Package audio plays the CHIP-8 buzzer: a single square-wave tone that
// sounds while the sound timer is non-zero.
package audio

import (
	"encoding/binary"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 440
	DefaultVolume     = 0.2

	bytesPerSample = 4 // float32, mono
)

// Beeper switches the tone on and off.
type Beeper interface {
	SetActive(on bool)
	Close() error
}

// Config describes the generated tone.
type Config struct {
	SampleRate int
	Frequency  float64
	Volume     float32
}

func (c *Config) setDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Frequency <= 0 {
		c.Frequency = DefaultFrequency
	}
	if c.Volume <= 0 {
		c.Volume = DefaultVolume
	}
}

// OtoBeeper streams the tone through an oto player for the lifetime of the
// process; inactive periods are rendered as silence.
type OtoBeeper struct {
	ctx    *oto.Context
	player *oto.Player
	wave   *SquareWave
	once   sync.Once
}

func New(cfg Config) (*OtoBeeper, error) {
	cfg.setDefaults()

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return nil, errors.Wrap(err, "oto.NewContext failed")
	}
	<-ready
	slog.Debug("audio: context ready", "sample_rate", cfg.SampleRate)

	wave := NewSquareWave(cfg)
	player := ctx.NewPlayer(wave)
	player.Play()

	return &OtoBeeper{
		ctx:    ctx,
		player: player,
		wave:   wave,
	}, nil
}

func (b *OtoBeeper) SetActive(on bool) {
	b.wave.SetActive(on)
}

func (b *OtoBeeper) Close() error {
	var err error
	b.once.Do(func() {
		if cerr := b.player.Close(); cerr != nil {
			err = errors.Wrap(cerr, "failed to close oto player")
		}
	})
	return err
}

type silentBeeper struct{}

// NewSilent returns a Beeper that never makes a sound.
func NewSilent() Beeper {
	return silentBeeper{}
}

func (silentBeeper) SetActive(bool) {}
func (silentBeeper) Close() error   { return nil }

// SquareWave is an io.Reader of mono float32LE samples.
type SquareWave struct {
	active atomic.Bool

	volume      float32
	halfPeriod  float64 // samples per half cycle
	phase       float64
	highSegment bool
}

func NewSquareWave(cfg Config) *SquareWave {
	cfg.setDefaults()

	return &SquareWave{
		volume:      cfg.Volume,
		halfPeriod:  float64(cfg.SampleRate) / cfg.Frequency / 2,
		highSegment: true,
	}
}

func (w *SquareWave) SetActive(on bool) {
	w.active.Store(on)
}

// Read fills p with whole samples. The oscillator advances even while
// inactive.
func (w *SquareWave) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample
	active := w.active.Load()

	for i := 0; i < n; i++ {
		sample := float32(0)
		if active {
			sample = w.volume
			if !w.highSegment {
				sample = -w.volume
			}
		}

		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(sample))

		w.phase++
		if w.phase >= w.halfPeriod {
			w.phase -= w.halfPeriod
			w.highSegment = !w.highSegment
		}
	}

	return n * bytesPerSample, nil
}
