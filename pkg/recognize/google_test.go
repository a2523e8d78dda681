package recognize

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

type recvStep struct {
	resp *speechpb.StreamingRecognizeResponse
	err  error
}

// scriptedStream records every request and serves scripted Recv events.
type scriptedStream struct {
	grpc.ClientStream
	mu    sync.Mutex
	sends []*speechpb.StreamingRecognizeRequest
	steps chan recvStep
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{steps: make(chan recvStep, 8)}
}

func (s *scriptedStream) Send(req *speechpb.StreamingRecognizeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, req)
	return nil
}

func (s *scriptedStream) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	step, ok := <-s.steps
	if !ok {
		return nil, io.EOF
	}
	return step.resp, step.err
}

func (s *scriptedStream) CloseSend() error { return nil }

// audio returns the audio chunks sent on this stream, config sends excluded.
func (s *scriptedStream) audio() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]byte
	for _, req := range s.sends {
		if a, ok := req.StreamingRequest.(*speechpb.StreamingRecognizeRequest_AudioContent); ok {
			out = append(out, a.AudioContent)
		}
	}
	return out
}

func (s *scriptedStream) configSends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.sends {
		if _, ok := req.StreamingRequest.(*speechpb.StreamingRecognizeRequest_StreamingConfig); ok {
			n++
		}
	}
	return n
}

// testGoogle wires a Google onto scripted streams, one per open.
func testGoogle(t *testing.T, streams ...*scriptedStream) (*Google, func() int) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	var mu sync.Mutex
	opens := 0
	g := &Google{
		opts: Options{Language: "en-US", SampleRate: 16000, InterimResults: true},
		log:  log,
	}
	g.newStream = func() (speechpb.Speech_StreamingRecognizeClient, error) {
		mu.Lock()
		defer mu.Unlock()
		if opens >= len(streams) {
			t.Errorf("unexpected stream open #%d", opens+1)
			return nil, fmt.Errorf("no scripted stream left")
		}
		s := streams[opens]
		opens++
		return s, nil
	}
	return g, func() int {
		mu.Lock()
		defer mu.Unlock()
		return opens
	}
}

func finalResponse(text string) *speechpb.StreamingRecognizeResponse {
	return &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{{
			IsFinal: true,
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{
				Transcript: text,
				Confidence: 0.9,
			}},
		}},
	}
}

func TestGoogleReopensAfterOutOfRange(t *testing.T) {
	s1 := newScriptedStream()
	s2 := newScriptedStream()
	g, opens := testGoogle(t, s1, s2)
	require.NoError(t, g.Start(context.Background()))

	require.NoError(t, g.Send([]byte{1, 2}))
	s1.steps <- recvStep{resp: finalResponse("first part")}
	res := <-g.Results()
	assert.Equal(t, "first part", res.Text)
	assert.True(t, res.Final)

	s1.steps <- recvStep{err: grpcstatus.Error(codes.OutOfRange, "maximum stream duration exceeded")}
	s2.steps <- recvStep{resp: finalResponse("second part")}

	// Receiving from the replacement stream proves the swap completed.
	res = <-g.Results()
	assert.Equal(t, "second part", res.Text)
	assert.True(t, res.Final)

	require.NoError(t, g.Send([]byte{3, 4}))
	close(s2.steps)
	_, open := <-g.Results()
	assert.False(t, open, "results closes after EOF")

	assert.Equal(t, 2, opens())
	assert.Equal(t, 1, s1.configSends())
	assert.Equal(t, 1, s2.configSends())
	// Audio sent before the restart is not replayed on the new stream.
	assert.Equal(t, [][]byte{{1, 2}}, s1.audio())
	assert.Equal(t, [][]byte{{3, 4}}, s2.audio())
}

func TestGoogleReopensOnDurationCapResponse(t *testing.T) {
	s1 := newScriptedStream()
	s2 := newScriptedStream()
	g, opens := testGoogle(t, s1, s2)
	require.NoError(t, g.Start(context.Background()))

	require.NoError(t, g.Send([]byte{9}))
	s1.steps <- recvStep{resp: finalResponse("kept across restart")}
	res := <-g.Results()
	assert.Equal(t, "kept across restart", res.Text)

	// The legacy in-band variant of the duration cap.
	s1.steps <- recvStep{resp: &speechpb.StreamingRecognizeResponse{
		Error: &status.Status{Code: 11, Message: "exceeded maximum allowed stream duration"},
	}}
	close(s2.steps)

	_, open := <-g.Results()
	assert.False(t, open)

	assert.Equal(t, 2, opens())
	assert.Equal(t, 1, s2.configSends())
}

func TestGoogleStopsReopeningWhenNoAudioSent(t *testing.T) {
	s1 := newScriptedStream()
	g, opens := testGoogle(t, s1)
	require.NoError(t, g.Start(context.Background()))

	// The sender died before a single chunk went out; the server times
	// the silent stream out. Reopening would loop forever.
	s1.steps <- recvStep{err: grpcstatus.Error(codes.OutOfRange, "audio timeout")}

	_, open := <-g.Results()
	assert.False(t, open, "session ends instead of reopening a quiet stream")
	assert.Equal(t, 1, opens())
}

func TestGoogleSurfacesStreamFailure(t *testing.T) {
	s1 := newScriptedStream()
	g, _ := testGoogle(t, s1)
	require.NoError(t, g.Start(context.Background()))

	require.NoError(t, g.Send([]byte{7}))
	s1.steps <- recvStep{err: grpcstatus.Error(codes.Unauthenticated, "bad credentials")}

	res := <-g.Results()
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "bad credentials")

	_, open := <-g.Results()
	assert.False(t, open)
}
