package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/capture"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/config"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/dictation"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/logging"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/render"
)

const defaultLogFile = "/tmp/speech-to-text.log"

func main() {
	lang := flag.String("lang", "", "recognition language code, e.g. en-US")
	device := flag.String("device", "", "input device index or name (default input if empty)")
	listDevices := flag.Bool("list-devices", false, "list input devices and exit")
	keepFillers := flag.Bool("keep-fillers", false, "keep filler words (um, uh, hmm) in the transcript")
	noPreview := flag.Bool("no-preview", false, "stay silent until the final paragraph")
	gain := flag.Float64("gain", 0, "microphone gain multiplier")
	save := flag.String("save", "", "write the captured session audio to this WAV file")
	credentials := flag.String("credentials", "", "path to a service account credentials file")
	envFile := flag.String("env", "", "path to a .env file")
	logFile := flag.String("log", "", "write diagnostics to this file instead of stderr")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *lang != "" {
		cfg.Language = *lang
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *keepFillers {
		cfg.RemoveFillers = false
	}
	if *noPreview {
		cfg.ShowPreview = false
	}
	if *gain != 0 {
		cfg.Gain = *gain
	}
	if *save != "" {
		cfg.SaveWAV = *save
	}
	if *credentials != "" {
		cfg.CredentialsFile = *credentials
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	// Diagnostics go to a file so the preview line owns the terminal;
	// warnings and worse are still mirrored to stderr.
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}

	logger, err := logging.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.MirrorWarnings(logger, os.Stderr)

	if *listDevices {
		if err := printDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	svc, err := dictation.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	line := render.New(os.Stdout, cfg.ShowPreview)
	svc.OnInterim = line.Preview
	svc.OnFinal = func(string) { line.ClearPreview() }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Listening... press Ctrl+C to stop.")
	paragraph, runErr := svc.Run(ctx)

	line.Paragraph(paragraph)
	// Run never reports plain cancellation, so anything here is a real
	// failure (dead microphone, auth, stream) even when the user also
	// interrupted.
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func printDevices() error {
	if err := capture.Init(); err != nil {
		return err
	}
	defer capture.Terminate()

	devices, err := capture.Devices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No audio input devices found.")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%d: %s (%d channels)\n", d.Index, d.Name, d.Channels)
	}
	return nil
}
