package dictation

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/audio"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/capture"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/config"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/recognize"
	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/transcript"
)

// Service runs live transcription sessions: microphone in, recognition
// results out, one assembled paragraph per session.
type Service struct {
	cfg     config.Config
	log     *logrus.Logger
	cleaner transcript.Cleaner

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}

	// newRecognizer is swapped out by tests.
	newRecognizer func(ctx context.Context) (recognize.Recognizer, error)

	// Callbacks, all optional.
	OnStart    func()
	OnStop     func()
	OnInterim  func(text string)
	OnFinal    func(text string)
	OnFinished func(paragraph string)
	OnError    func(error)
}

// New creates a Service and initializes the audio runtime.
func New(cfg config.Config, log *logrus.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := capture.Init(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:     cfg,
		log:     log,
		cleaner: transcript.Cleaner{RemoveFillers: cfg.RemoveFillers},
	}
	s.newRecognizer = func(ctx context.Context) (recognize.Recognizer, error) {
		return recognize.NewGoogle(ctx, recognize.Options{
			Language:        cfg.Language,
			SampleRate:      cfg.SampleRate,
			InterimResults:  cfg.ShowPreview,
			CredentialsFile: cfg.CredentialsFile,
			Logger:          log,
		})
	}
	return s, nil
}

// Close stops any active session, waits for it to wind down, and then
// releases the audio runtime. The wait matters: terminating PortAudio
// under a still-open microphone stream is not safe.
func (s *Service) Close() {
	s.mu.Lock()
	if s.isRunning {
		s.stopLocked()
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	capture.Terminate()
}

// Run performs one full session: capture until the context is cancelled
// or the stream fails, then return the assembled paragraph.
func (s *Service) Run(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rec, err := s.newRecognizer(ctx)
	if err != nil {
		return "", err
	}
	defer rec.Close()

	mic, err := capture.Open(capture.Options{
		SampleRate:      s.cfg.SampleRate,
		FramesPerBuffer: s.cfg.FramesPerBuffer(),
		Gain:            s.cfg.Gain,
		Device:          s.cfg.Device,
		Archive:         s.cfg.SaveWAV != "",
		Logger:          s.log,
	})
	if err != nil {
		return "", err
	}
	defer mic.Stop()

	if err := rec.Start(ctx); err != nil {
		return "", err
	}
	if err := mic.Start(ctx); err != nil {
		return "", err
	}

	if s.OnStart != nil {
		s.OnStart()
	}
	s.log.WithFields(logrus.Fields{
		"language":    s.cfg.Language,
		"sample_rate": s.cfg.SampleRate,
	}).Info("session started")

	// Forward microphone frames to the recognizer. Send failures are
	// transient (stream reopening or winding down) and only logged.
	sendDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		for frame := range mic.Frames() {
			if err := rec.Send(frame); err != nil {
				s.log.WithError(err).Debug("dropped audio chunk")
			}
		}
	}()

	builder := transcript.NewBuilder(s.cleaner)
	runErr := s.processResults(rec.Results(), builder)

	cancel()
	<-sendDone

	if s.OnStop != nil {
		s.OnStop()
	}

	if micErr := mic.Err(); micErr != nil && runErr == nil {
		runErr = micErr
	}
	s.saveArchive(mic.Archive())

	paragraph := builder.Paragraph()
	s.log.WithField("chars", len(paragraph)).Info("session finished")
	if s.OnFinished != nil {
		s.OnFinished(paragraph)
	}
	return paragraph, runErr
}

// processResults consumes the recognition stream: interims feed the
// preview, finals feed the paragraph builder.
func (s *Service) processResults(results <-chan recognize.Result, b *transcript.Builder) error {
	for res := range results {
		if res.Err != nil {
			if s.OnError != nil {
				s.OnError(res.Err)
			}
			return res.Err
		}
		if res.Final {
			b.Add(transcript.Segment{
				Text:       res.Text,
				Final:      true,
				Confidence: res.Confidence,
			})
			if s.OnFinal != nil {
				s.OnFinal(s.cleaner.Clean(res.Text))
			}
			continue
		}
		if s.OnInterim != nil {
			s.OnInterim(s.cleaner.Clean(res.Text))
		}
	}
	return nil
}

func (s *Service) saveArchive(samples []int16) {
	if s.cfg.SaveWAV == "" || len(samples) == 0 {
		return
	}
	data, err := audio.EncodeWAV(samples, s.cfg.SampleRate)
	if err != nil {
		s.log.WithError(err).Warn("failed to encode session WAV")
		return
	}
	if err := os.WriteFile(s.cfg.SaveWAV, data, 0644); err != nil {
		s.log.WithError(err).Warn("failed to write session WAV")
		return
	}
	s.log.WithField("path", s.cfg.SaveWAV).Info("session audio saved")
}

// Toggle starts a session if idle, or stops the active one. Used by the
// tray build, where sessions are hotkey-driven.
func (s *Service) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.stopLocked()
	} else {
		s.startLocked()
	}
}

// Stop ends the active session, if any.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.stopLocked()
	}
}

func (s *Service) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.isRunning = true

	go func() {
		defer close(done)
		_, err := s.Run(ctx)
		if err != nil && s.OnError != nil {
			s.OnError(fmt.Errorf("session failed: %w", err))
		}
		s.mu.Lock()
		s.isRunning = false
		s.cancel = nil
		s.mu.Unlock()
	}()
}

func (s *Service) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.isRunning = false
}
