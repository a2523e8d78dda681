package capture

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/theresegatsing/Speech-To-Text-Transcription/pkg/audio"
)

// Init initializes the PortAudio runtime. Call once per process, paired
// with Terminate.
func Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init error: %w", err)
	}
	return nil
}

// Terminate releases the PortAudio runtime.
func Terminate() {
	portaudio.Terminate()
}

// Device describes an input-capable audio device.
type Device struct {
	Index    int
	Name     string
	Channels int
}

// Devices lists input-capable devices. PortAudio must be initialized.
func Devices() ([]Device, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var devices []Device
	for i, info := range all {
		if info.MaxInputChannels > 0 {
			devices = append(devices, Device{
				Index:    i,
				Name:     info.Name,
				Channels: info.MaxInputChannels,
			})
		}
	}
	return devices, nil
}

// findDevice resolves a device selector, either a numeric index or an
// exact device name.
func findDevice(selector string) (*portaudio.DeviceInfo, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	if idx, err := strconv.Atoi(selector); err == nil {
		if idx < 0 || idx >= len(all) {
			return nil, fmt.Errorf("device index %d out of range", idx)
		}
		if all[idx].MaxInputChannels == 0 {
			return nil, fmt.Errorf("device %d (%s) has no input channels", idx, all[idx].Name)
		}
		return all[idx], nil
	}

	for _, info := range all {
		if info.Name == selector && info.MaxInputChannels > 0 {
			return info, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", selector)
}

// Options configures a Microphone.
type Options struct {
	SampleRate      int
	FramesPerBuffer int
	Gain            float64
	Device          string // index or name, empty for the default input
	Archive         bool   // keep captured samples for a session WAV
	Logger          *logrus.Logger
}

// Microphone captures mono 16-bit PCM from an input device and delivers
// gain-adjusted LINEAR16 frames on a channel.
type Microphone struct {
	opts   Options
	log    *logrus.Logger
	stream *portaudio.Stream
	buf    []int16

	frames  chan []byte
	archive []int16
	err     error
}

// Open opens the default input device, or the one selected in Options.
func Open(opts Options) (*Microphone, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Microphone{
		opts:   opts,
		log:    log,
		buf:    make([]int16, opts.FramesPerBuffer),
		frames: make(chan []byte, 8),
	}

	var err error
	if opts.Device == "" {
		m.stream, err = portaudio.OpenDefaultStream(
			1, 0, float64(opts.SampleRate), len(m.buf), m.buf)
	} else {
		var info *portaudio.DeviceInfo
		info, err = findDevice(opts.Device)
		if err != nil {
			return nil, err
		}
		params := portaudio.LowLatencyParameters(info, nil)
		params.Input.Channels = 1
		params.SampleRate = float64(opts.SampleRate)
		params.FramesPerBuffer = len(m.buf)
		m.stream, err = portaudio.OpenStream(params, m.buf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	return m, nil
}

// Start begins capturing. Frames are delivered until the context is
// cancelled or the device fails; then Frames closes and Err reports the
// cause, if any.
func (m *Microphone) Start(ctx context.Context) error {
	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	go m.run(ctx)
	return nil
}

func (m *Microphone) run(ctx context.Context) {
	defer close(m.frames)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				// Harmless under load, keep whatever landed in the buffer.
				m.log.Debug("input overflowed")
			} else {
				if ctx.Err() == nil {
					m.err = fmt.Errorf("input read error: %w", err)
				}
				return
			}
		}

		samples := make([]int16, len(m.buf))
		for i, s := range m.buf {
			boosted := float64(s) * m.opts.Gain
			if boosted > 32767 {
				boosted = 32767
			} else if boosted < -32768 {
				boosted = -32768
			}
			samples[i] = int16(boosted)
		}
		if m.opts.Archive {
			m.archive = append(m.archive, samples...)
		}

		select {
		case m.frames <- audio.Int16ToBytes(samples):
		case <-ctx.Done():
			return
		}
	}
}

// Frames delivers captured audio as LINEAR16 chunks.
func (m *Microphone) Frames() <-chan []byte {
	return m.frames
}

// Err reports a device failure. Valid once Frames has closed.
func (m *Microphone) Err() error {
	return m.err
}

// Archive returns the session samples accumulated so far. Only populated
// when Options.Archive is set, and only safe to read after Frames closed.
func (m *Microphone) Archive() []int16 {
	return m.archive
}

// Stop stops and closes the underlying stream.
func (m *Microphone) Stop() {
	m.stream.Stop()
	m.stream.Close()
}
