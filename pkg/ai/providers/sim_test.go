package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sciencemonk/talktomysim-sub002/pkg/ai"
	"github.com/sciencemonk/talktomysim-sub002/pkg/config"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// chunkReader hands back one chunk per Read call, mimicking a network body
// that splits frames at arbitrary byte boundaries.
type chunkReader struct {
	chunks []string
	pos    int
	closed bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	r.pos++
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

func collect(t *testing.T, chunks ...string) ([]string, error) {
	t.Helper()
	stream := newSimStream(&chunkReader{chunks: chunks})
	defer stream.Close()

	var deltas []string
	for stream.Next() {
		deltas = append(deltas, stream.Content())
	}
	return deltas, stream.Err()
}

func deltaFrame(content string) string {
	return `data: {"choices":[{"delta":{"content":` + jsonString(content) + `}}]}` + "\n"
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestSimStreamDeliversDeltasInOrder(t *testing.T) {
	deltas, err := collect(t,
		deltaFrame("Hel")+deltaFrame("lo"),
		deltaFrame(" wor"),
		deltaFrame("ld")+"data: [DONE]\n",
	)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if got := strings.Join(deltas, ""); got != "Hello world" {
		t.Errorf("assembled = %q, want %q", got, "Hello world")
	}
	if len(deltas) != 4 {
		t.Errorf("deltas = %d, want 4", len(deltas))
	}
}

func TestSimStreamReassemblesTornFrame(t *testing.T) {
	whole := deltaFrame("first half and second half")
	cut := len(whole) / 2
	deltas, err := collect(t, whole[:cut], whole[cut:], "data: [DONE]\n")
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(deltas) != 1 || deltas[0] != "first half and second half" {
		t.Errorf("deltas = %q", deltas)
	}
}

func TestSimStreamTornAcrossManyChunks(t *testing.T) {
	whole := deltaFrame("abcdefghij") + "data: [DONE]\n"
	var chunks []string
	for i := 0; i < len(whole); i += 3 {
		end := i + 3
		if end > len(whole) {
			end = len(whole)
		}
		chunks = append(chunks, whole[i:end])
	}
	deltas, err := collect(t, chunks...)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(deltas) != 1 || deltas[0] != "abcdefghij" {
		t.Errorf("deltas = %q", deltas)
	}
}

func TestSimStreamIgnoresCommentsAndBlankLines(t *testing.T) {
	deltas, err := collect(t,
		": keep-alive\n\n"+deltaFrame("hi"),
		"\r\n: ping\r\n"+deltaFrame(" there")+"data: [DONE]\r\n",
	)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if got := strings.Join(deltas, ""); got != "hi there" {
		t.Errorf("assembled = %q", got)
	}
}

func TestSimStreamStopsAtDoneSentinel(t *testing.T) {
	deltas, err := collect(t,
		deltaFrame("before")+"data: [DONE]\n"+deltaFrame("after"),
	)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(deltas) != 1 || deltas[0] != "before" {
		t.Errorf("deltas = %q, frames after the sentinel must be ignored", deltas)
	}
}

func TestSimStreamSkipsEmptyAndUnrecognizedFrames(t *testing.T) {
	deltas, err := collect(t,
		deltaFrame("")+`data: {"event":"ping"}`+"\n"+deltaFrame("real")+"data: [DONE]\n",
	)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(deltas) != 1 || deltas[0] != "real" {
		t.Errorf("deltas = %q", deltas)
	}
}

func TestSimStreamSkipsMalformedFrameAfterRetry(t *testing.T) {
	deltas, err := collect(t,
		"data: {not json at all\n",
		deltaFrame("still going")+"data: [DONE]\n",
	)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(deltas) != 1 || deltas[0] != "still going" {
		t.Errorf("deltas = %q", deltas)
	}
}

func TestSimStreamTruncatedTail(t *testing.T) {
	deltas, err := collect(t,
		deltaFrame("partial reply"),
		`data: {"choices":[{"delta":{"conte`,
	)
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("error = %v, want ErrTruncatedStream", err)
	}
	if len(deltas) != 1 || deltas[0] != "partial reply" {
		t.Errorf("deltas before truncation = %q", deltas)
	}
}

func TestSimStreamCleanEOFWithoutSentinel(t *testing.T) {
	deltas, err := collect(t, deltaFrame("all done")+"\n")
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(deltas) != 1 || deltas[0] != "all done" {
		t.Errorf("deltas = %q", deltas)
	}
}

func TestSimStreamCloseClosesBody(t *testing.T) {
	body := &chunkReader{chunks: []string{"data: [DONE]\n"}}
	stream := newSimStream(body)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !body.closed {
		t.Error("response body left open")
	}
}

func newTestSimProvider(rt roundTripperFunc) *SimProvider {
	return &SimProvider{
		apiURL:     "https://sims.example.com/api/chat",
		simID:      "sim-42",
		apiKey:     "secret",
		userID:     "user-7",
		httpClient: &http.Client{Transport: rt, Timeout: 5 * time.Second},
	}
}

func TestSimProviderRequestShape(t *testing.T) {
	var captured *http.Request
	var capturedBody simChatRequest
	p := newTestSimProvider(func(req *http.Request) (*http.Response, error) {
		captured = req
		if err := json.NewDecoder(req.Body).Decode(&capturedBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("data: [DONE]\n")),
		}, nil
	})

	stream, err := p.CreateChatCompletionStream(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletionStream: %v", err)
	}
	stream.Close()

	if got := captured.Header.Get("Accept"); got != "text/event-stream" {
		t.Errorf("Accept = %q", got)
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
	if capturedBody.SimID != "sim-42" || capturedBody.UserID != "user-7" {
		t.Errorf("body = %+v", capturedBody)
	}
	if len(capturedBody.Messages) != 1 || capturedBody.Messages[0].Content != "hello" {
		t.Errorf("messages = %+v", capturedBody.Messages)
	}
}

func TestSimProviderRejectsEmptyMessages(t *testing.T) {
	p := newTestSimProvider(func(req *http.Request) (*http.Response, error) {
		t.Fatal("unexpected request")
		return nil, nil
	})
	if _, err := p.CreateChatCompletionStream(context.Background(), ai.ChatRequest{}); err == nil {
		t.Error("expected error for empty message list")
	}
}

func TestSimProviderNon200FailsBeforeStreaming(t *testing.T) {
	p := newTestSimProvider(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader(`{"error":"rate limited"}`)),
		}, nil
	})

	_, err := p.CreateChatCompletionStream(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error = %v, want status and body", err)
	}
}

func TestSimProviderCreateChatCompletionDrainsStream(t *testing.T) {
	p := newTestSimProvider(func(req *http.Request) (*http.Response, error) {
		body := deltaFrame("Hello") + deltaFrame(", sim.") + "data: [DONE]\n"
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	})

	resp, err := p.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion: %v", err)
	}
	if resp.Content != "Hello, sim." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Model != "sim-42" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestNewSimProviderValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SimConfig
		wantErr bool
	}{
		{"valid", config.SimConfig{APIURL: "https://sims.example.com/api/chat", SimID: "sim-1"}, false},
		{"missing url", config.SimConfig{SimID: "sim-1"}, true},
		{"missing sim id", config.SimConfig{APIURL: "https://sims.example.com/api/chat"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Providers.Sim = tt.cfg
			_, err := NewSimProvider(ai.ProviderConfig{Type: ai.ProviderSim, Config: cfg})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
