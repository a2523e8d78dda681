package recognize

import (
	"context"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Options configures a Google streaming session.
type Options struct {
	Language        string
	SampleRate      int
	InterimResults  bool
	CredentialsFile string
	Logger          *logrus.Logger
}

// Google streams microphone audio to the Cloud Speech-to-Text API.
//
// A single StreamingRecognize call is capped by the service at roughly
// five minutes; when that cap is hit the stream is reopened in place and
// sending resumes, so callers see one uninterrupted session.
type Google struct {
	opts   Options
	log    *logrus.Logger
	client *speech.Client

	ctx     context.Context
	results chan Result

	// newStream is swapped out by tests.
	newStream func() (speechpb.Speech_StreamingRecognizeClient, error)

	mu            sync.Mutex
	stream        speechpb.Speech_StreamingRecognizeClient
	sentSinceOpen bool
}

// NewGoogle creates the API client. With a credentials file configured it
// authenticates from that service account, otherwise ambient application
// default credentials apply.
func NewGoogle(ctx context.Context, opts Options) (*Google, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	g := &Google{opts: opts, log: log, client: client}
	g.newStream = func() (speechpb.Speech_StreamingRecognizeClient, error) {
		return g.client.StreamingRecognize(g.ctx)
	}
	return g, nil
}

// Start opens the recognition stream, sends the initial configuration and
// launches the receive loop.
func (g *Google) Start(ctx context.Context) error {
	g.ctx = ctx
	if err := g.openStream(); err != nil {
		return err
	}
	g.results = make(chan Result, 32)
	go g.receiveLoop()
	return nil
}

func (g *Google) openStream() error {
	stream, err := g.newStream()
	if err != nil {
		return fmt.Errorf("failed to open recognition stream: %w", err)
	}

	// The first request carries configuration only, no audio.
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:            int32(g.opts.SampleRate),
					LanguageCode:               g.opts.Language,
					EnableAutomaticPunctuation: true,
				},
				InterimResults:  g.opts.InterimResults,
				SingleUtterance: false,
			},
		},
	}); err != nil {
		return fmt.Errorf("failed to send recognition config: %w", err)
	}

	g.mu.Lock()
	g.stream = stream
	g.sentSinceOpen = false
	g.mu.Unlock()
	return nil
}

// Send forwards one chunk of LINEAR16 audio to the current stream.
func (g *Google) Send(chunk []byte) error {
	g.mu.Lock()
	stream := g.stream
	if stream != nil {
		g.sentSinceOpen = true
	}
	g.mu.Unlock()

	if stream == nil {
		return fmt.Errorf("recognition stream not started")
	}
	return stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: chunk,
		},
	})
}

// Results delivers hypotheses in arrival order.
func (g *Google) Results() <-chan Result {
	return g.results
}

func (g *Google) receiveLoop() {
	defer close(g.results)

	for {
		g.mu.Lock()
		stream := g.stream
		g.mu.Unlock()
		if stream == nil {
			return
		}

		resp, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			if g.ctx.Err() != nil {
				return
			}
			if status.Code(err) == codes.OutOfRange {
				if !g.reopen() {
					return
				}
				continue
			}
			g.results <- Result{Err: fmt.Errorf("recognition stream failed: %w", err)}
			return
		}
		if respErr := resp.Error; respErr != nil {
			// Codes 3 and 11 signal the per-stream duration cap.
			if respErr.Code == 3 || respErr.Code == 11 {
				if !g.reopen() {
					return
				}
				continue
			}
			g.results <- Result{Err: fmt.Errorf("recognition error: %s", respErr.Message)}
			return
		}

		for _, res := range resp.Results {
			if len(res.Alternatives) == 0 {
				continue
			}
			alt := res.Alternatives[0]
			g.results <- Result{
				Text:       alt.Transcript,
				Final:      res.IsFinal,
				Confidence: alt.Confidence,
			}
		}
	}
}

// reopen replaces the exhausted stream. Finals accumulated by the caller
// are unaffected; only the audio in flight on the old stream is lost.
//
// A stream that ends without having received any audio means the sender
// has gone quiet (microphone failure or shutdown in progress); reopening
// then would cycle forever, so the session ends instead.
func (g *Google) reopen() bool {
	g.mu.Lock()
	quiet := !g.sentSinceOpen
	g.mu.Unlock()
	if quiet {
		g.log.Warn("recognition stream ended with no audio sent, not reopening")
		return false
	}

	g.log.Info("recognition stream hit its duration cap, reopening")
	if err := g.openStream(); err != nil {
		if g.ctx.Err() == nil {
			g.results <- Result{Err: fmt.Errorf("failed to reopen recognition stream: %w", err)}
		}
		return false
	}
	return true
}

// Close half-closes the current stream so pending results drain, then
// releases the API client.
func (g *Google) Close() error {
	g.mu.Lock()
	stream := g.stream
	g.stream = nil
	g.mu.Unlock()

	if stream != nil {
		if err := stream.CloseSend(); err != nil {
			g.log.WithError(err).Warn("failed to close recognition stream")
		}
	}
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
