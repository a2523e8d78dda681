package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getlantern/systray"
	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"
	"github.com/sirupsen/logrus"

	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/config"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/dictation"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/logging"
)

const defaultLogFile = "/tmp/speech-to-text.log"

var (
	service *dictation.Service
	logger  *logrus.Logger
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// The tray build has no terminal, so diagnostics always go to a file.
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	// The preview line has nowhere to render here; interims are skipped
	// and only the typed-out paragraph matters.
	cfg.ShowPreview = false

	logger, err = logging.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("tray application started")

	service, err = dictation.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize dictation service")
	}

	systray.Run(onReady, onExit)
}

func onReady() {
	systray.SetIcon(iconIdle)
	systray.SetTitle("")
	systray.SetTooltip("Real-time Transcription")

	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	service.OnStart = func() {
		systray.SetTitle("")
		systray.SetIcon(iconListening)
	}
	service.OnStop = func() {
		systray.SetTitle("")
		systray.SetIcon(iconIdle)
	}
	service.OnFinished = func(paragraph string) {
		if paragraph == "" {
			return
		}
		// Give the hotkey a moment to be released before typing.
		time.Sleep(200 * time.Millisecond)
		robotgo.TypeStr(paragraph)
	}
	service.OnError = func(err error) {
		logger.WithError(err).Error("transcription error")
		systray.SetTitle("Transcription: Error")
	}

	go startHotkeyListener()

	go func() {
		<-mQuit.ClickedCh
		systray.Quit()
	}()
}

func onExit() {
	if service != nil {
		service.Close()
	}
}

func startHotkeyListener() {
	logger.Info("listening for hotkeys")

	// Toggle: Cmd + Shift + Space
	hook.Register(hook.KeyDown, []string{"space", "shift", "command"}, func(e hook.Event) {
		if service != nil {
			service.Toggle()
		}
	})

	// Cancel: Escape
	hook.Register(hook.KeyDown, []string{"esc"}, func(e hook.Event) {
		if service != nil {
			service.Stop()
		}
	})

	s := hook.Start()
	<-hook.Process(s)
}
