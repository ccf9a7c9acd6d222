package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kapitanov/chip8core/internal/audio"
	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/term"
	"github.com/kapitanov/chip8core/internal/vm"
)

type host interface {
	vm.HAL
	Shutdown()
}

func main() {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run emulator",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	verbose := cmd.Flags().BoolP("verbose", "v", false, "enable verbose logging")
	terminal := cmd.Flags().BoolP("terminal", "t", false, "render in the terminal instead of a window")
	mute := cmd.Flags().BoolP("mute", "m", false, "disable the buzzer")
	cyclesPerFrame := cmd.Flags().IntP("cycles-per-frame", "c", vm.DefaultCyclesPerFrame, "instructions executed per 60 Hz frame")
	seed := cmd.Flags().Uint64("seed", 0, "random generator seed (0 picks one from the clock)")
	shiftQuirk := cmd.Flags().Bool("shift-quirk", false, "8xy6/8xyE shift Vy into Vx")
	indexQuirk := cmd.Flags().Bool("index-quirk", false, "Fx55/Fx65 advance I past the last register")
	keyHold := cmd.Flags().Duration("key-hold", term.DefaultKeyHold, "how long a terminal key press lasts")

	cmd.RunE = func(_ *cobra.Command, args []string) error {
		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if *verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))

		path := args[0]
		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to load file %q: %w", path, err)
		}

		beeper, err := newBeeper(*mute)
		if err != nil {
			return err
		}

		h, err := openHost(beeper, func(b audio.Beeper) (host, error) {
			return newHost(*terminal, b, *keyHold)
		})
		if err != nil {
			return err
		}
		defer h.Shutdown()

		opts := []vm.Option{
			vm.WithShiftQuirk(*shiftQuirk),
			vm.WithIndexQuirk(*indexQuirk),
		}
		if *seed != 0 {
			opts = append(opts, vm.WithSeed(*seed))
		}

		machine := vm.New(opts...)
		cfg := vm.RunConfig{CyclesPerFrame: *cyclesPerFrame}

		for {
			err = machine.Run(h, bs, cfg)

			if errors.Is(err, hal.ErrQuit) {
				return nil
			}

			if errors.Is(err, hal.ErrReboot) {
				slog.Info("reboot")
				continue
			}

			return err
		}
	}

	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func newBeeper(mute bool) (audio.Beeper, error) {
	if mute {
		return audio.NewSilent(), nil
	}

	beeper, err := audio.New(audio.Config{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "unable to initialize audio")
	}
	return beeper, nil
}

// openHost hands beeper to the host built by open. The host owns it from
// then on; if open fails, beeper is closed here.
func openHost(beeper audio.Beeper, open func(audio.Beeper) (host, error)) (host, error) {
	h, err := open(beeper)
	if err != nil {
		if cerr := beeper.Close(); cerr != nil {
			slog.Error("failed to close beeper", "err", cerr)
		}
		return nil, err
	}

	return h, nil
}

func newHost(terminal bool, beeper audio.Beeper, keyHold time.Duration) (host, error) {
	if terminal {
		h, err := term.New(os.Stdin, os.Stdout, beeper, term.Config{KeyHold: keyHold})
		if err != nil {
			return nil, pkgerrors.Wrap(err, "unable to initialize terminal")
		}
		return h, nil
	}

	h, err := hal.New(beeper)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize hal: %w", err)
	}
	return h, nil
}
