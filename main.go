package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/afero"
	emubridge "github.com/user-none/emsx/bridge/ebiten"
	"github.com/user-none/emsx/cli"
	"github.com/user-none/emsx/emu"
	"github.com/user-none/emsx/record"
)

type options struct {
	romPath  string
	machine  string
	biosPath string
	logoPath string
	region   string
	headless bool
	frames   int
	wavPath  string
	pngPath  string
	key1     string
	key2     string
}

func main() {
	var opts options
	flag.StringVar(&opts.romPath, "rom", "", "path to ROM file (required)")
	flag.StringVar(&opts.machine, "machine", "auto", "machine: auto, msx1, or sg1000")
	flag.StringVar(&opts.biosPath, "bios", "", "path to the 32KB MSX BIOS")
	flag.StringVar(&opts.logoPath, "logo", "", "path to the 16KB MSX logo ROM")
	flag.StringVar(&opts.region, "region", "ntsc", "region: ntsc or pal")
	flag.BoolVar(&opts.headless, "headless", false, "run without a window")
	flag.IntVar(&opts.frames, "frames", 600, "frames to run in headless mode")
	flag.StringVar(&opts.wavPath, "wav", "", "record audio to a WAV file")
	flag.StringVar(&opts.pngPath, "png", "", "save the last headless frame as PNG")
	flag.StringVar(&opts.key1, "key1", "", "MSX key held by special button 1 (e.g. a, space, kp5)")
	flag.StringVar(&opts.key2, "key2", "", "MSX key held by special button 2")
	flag.Parse()

	if opts.romPath == "" {
		log.Fatal("ROM path is required. Usage: emsx -rom <path>")
	}
	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

// run does all the work of main so deferred cleanup, including the WAV
// header rewrite, happens before the process exits.
func run(opts options) (err error) {
	fs := afero.NewOsFs()
	romData, err := afero.ReadFile(fs, opts.romPath)
	if err != nil {
		return fmt.Errorf("failed to load ROM: %w", err)
	}

	machine, err := parseMachine(opts.machine, romData)
	if err != nil {
		return err
	}
	region, err := parseRegion(opts.region)
	if err != nil {
		return err
	}

	e := emubridge.NewEmulator(machine, romData, region)
	defer e.Close()

	if machine == emu.MachineMSX1 {
		if err := loadSystemImages(fs, e.Emulator, opts.biosPath, opts.logoPath); err != nil {
			return err
		}
	}
	if err := setupSpecialKeys(e.Emulator, opts.key1, opts.key2); err != nil {
		return err
	}

	var wavOut *record.WAVWriter
	if opts.wavPath != "" {
		wavOut, err = record.NewWAVWriter(fs, opts.wavPath, emu.SampleRate)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := wavOut.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	if opts.headless {
		return runHeadless(fs, e.Emulator, opts, wavOut)
	}

	ebiten.SetWindowSize(emu.ScreenWidth*3, emu.ScreenHeight*3)
	ebiten.SetWindowTitle(emu.Name + " - " + machine.String())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(emu.ScreenWidth, emu.ScreenHeight, -1, -1)
	ebiten.SetTPS(60)

	var sink cli.SampleSink
	if wavOut != nil {
		sink = wavOut
	}
	runner := cli.NewRunner(e, sink)
	defer runner.Close()

	return ebiten.RunGame(runner)
}

func parseMachine(name string, rom []byte) (emu.Machine, error) {
	switch strings.ToLower(name) {
	case "auto":
		return emu.DetectMachine(rom), nil
	case "msx", "msx1":
		return emu.MachineMSX1, nil
	case "sg", "sg1000", "sg-1000":
		return emu.MachineSG1000, nil
	default:
		return 0, fmt.Errorf("invalid machine: %s (use auto, msx1, or sg1000)", name)
	}
}

func parseRegion(name string) (emu.Region, error) {
	switch strings.ToLower(name) {
	case "ntsc":
		return emu.RegionNTSC, nil
	case "pal":
		return emu.RegionPAL, nil
	default:
		return emu.DefaultRegion(), fmt.Errorf("invalid region: %s (use ntsc or pal)", name)
	}
}

// loadSystemImages loads the BIOS (required on MSX) and the optional
// logo ROM.
func loadSystemImages(fs afero.Fs, e *emu.Emulator, biosPath, logoPath string) error {
	if biosPath == "" {
		log.Printf("Warning: no BIOS given, most MSX cartridges will not start")
	} else if err := e.LoadBIOSFile(fs, biosPath); err != nil {
		return err
	}

	if logoPath != "" {
		return e.LoadLogoFile(fs, logoPath)
	}
	return nil
}

var keyNames = map[string]byte{
	"space":  ' ',
	"enter":  '\r',
	"return": '\r',
	"tab":    '\t',
	"esc":    0x1B,
	"bs":     0x08,
	"del":    0x7F,
}

// parseKey turns a -key flag into an ASCII code. A "kp" prefix selects
// the numeric keypad, e.g. "kp5" or "kp+".
func parseKey(s string) (ascii byte, tenKey bool, err error) {
	if strings.HasPrefix(s, "kp") && len(s) == 3 {
		return s[2], true, nil
	}
	if c, ok := keyNames[strings.ToLower(s)]; ok {
		return c, false, nil
	}
	if len(s) == 1 {
		return s[0], false, nil
	}
	return 0, false, fmt.Errorf("unknown key: %q", s)
}

func setupSpecialKeys(e *emu.Emulator, key1, key2 string) error {
	setups := []struct {
		flag  string
		apply func(byte, bool)
	}{
		{key1, e.SetupSpecialKey1},
		{key2, e.SetupSpecialKey2},
	}
	for _, s := range setups {
		if s.flag == "" {
			continue
		}
		ascii, tenKey, err := parseKey(s.flag)
		if err != nil {
			return err
		}
		s.apply(ascii, tenKey)
	}
	return nil
}

// runHeadless runs opts.frames frames with no input, optionally
// recording audio and the final frame, and prints a summary.
func runHeadless(fs afero.Fs, e *emu.Emulator, opts options, wavOut *record.WAVWriter) error {
	if opts.frames <= 0 {
		return errors.New("frames must be positive")
	}

	samples := 0
	for i := 0; i < opts.frames; i++ {
		e.Tick(0, 0)
		buf := e.SoundBuffer()
		samples += len(buf) / 2
		if wavOut != nil {
			if err := wavOut.Write(buf); err != nil {
				return err
			}
		}
	}

	if opts.pngPath != "" {
		if err := record.WritePNG(fs, opts.pngPath, e.FrameImage()); err != nil {
			return err
		}
	}

	fmt.Println(summary(e, opts, samples))
	return nil
}

func summary(e *emu.Emulator, opts options, samples int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6))
	label := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(4))

	timing := e.GetTiming()
	rows := [][2]string{
		{"machine", e.Machine().String()},
		{"timing", fmt.Sprintf("%d lines, %d fps", timing.Scanlines, timing.FPS)},
		{"frames", fmt.Sprintf("%d", opts.frames)},
		{"samples", fmt.Sprintf("%d at %d Hz", samples, emu.SampleRate)},
		{"vdp mode", fmt.Sprintf("%d", e.VDP().Mode())},
	}
	if opts.wavPath != "" {
		rows = append(rows, [2]string{"wav", opts.wavPath})
	}
	if opts.pngPath != "" {
		rows = append(rows, [2]string{"png", opts.pngPath})
	}

	var b strings.Builder
	b.WriteString(title.Render(emu.Name + " " + emu.Version))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(label.Render(fmt.Sprintf("%-9s", r[0])))
		b.WriteString(" ")
		b.WriteString(r[1])
	}
	return b.String()
}
