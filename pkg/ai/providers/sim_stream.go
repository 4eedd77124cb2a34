package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
)

const (
	simDataPrefix   = "data: "
	simDoneSentinel = "[DONE]"
)

// ErrTruncatedStream is reported when the response body ends while a frame
// is still buffered awaiting completion.
var ErrTruncatedStream = errors.New("sim stream ended with an incomplete frame")

// simChunk is the JSON payload carried by a data frame.
type simChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type simFrameKind int

const (
	frameDelta simFrameKind = iota
	frameUnrecognized
)

type simFrame struct {
	kind  simFrameKind
	delta string
}

// decodeSimFrame parses a data-frame payload. ok is false when the payload
// is not valid JSON, which is treated as a frame torn across a chunk
// boundary rather than discarded.
func decodeSimFrame(payload string) (simFrame, bool) {
	var chunk simChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return simFrame{}, false
	}
	if len(chunk.Choices) == 0 {
		return simFrame{kind: frameUnrecognized}, true
	}
	return simFrame{kind: frameDelta, delta: chunk.Choices[0].Delta.Content}, true
}

// simStream incrementally parses the endpoint's line-delimited frame
// protocol. The body is read in raw chunks into buf; complete lines are
// consumed in arrival order, and a line whose JSON payload fails to decode
// is left in the buffer for one retry after the next read, so frames split
// across network chunks survive reassembly.
type simStream struct {
	body    io.ReadCloser
	buf     []byte
	scratch []byte
	current string
	err     error
	done    bool
	eof     bool
	pending string // last complete line that failed to decode, retried once
}

func newSimStream(body io.ReadCloser) *simStream {
	return &simStream{
		body:    body,
		scratch: make([]byte, 4096),
	}
}

func (s *simStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for {
		if advanced, ok := s.scanBuffered(); advanced {
			return ok
		}

		if s.eof {
			if len(bytes.TrimSpace(s.buf)) > 0 {
				slog.Warn("sim_stream_truncated", "pending_bytes", len(s.buf))
				s.err = ErrTruncatedStream
			} else {
				s.done = true
			}
			return false
		}

		n, err := s.body.Read(s.scratch)
		if n > 0 {
			s.buf = append(s.buf, s.scratch[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				s.eof = true
			} else {
				s.err = err
				return false
			}
		}
	}
}

// scanBuffered consumes complete lines already in the buffer. It returns
// advanced=true once the stream produced a delta or terminated; otherwise
// more bytes are needed.
func (s *simStream) scanBuffered() (advanced, ok bool) {
	for {
		idx := bytes.IndexByte(s.buf, '\n')
		if idx < 0 {
			return false, false
		}

		line := string(s.buf[:idx])
		line = strings.TrimSuffix(line, "\r")
		rest := s.buf[idx+1:]

		if line == "" || strings.HasPrefix(line, ":") {
			s.buf = rest
			continue
		}
		if !strings.HasPrefix(line, simDataPrefix) {
			s.buf = rest
			continue
		}

		payload := strings.TrimSpace(line[len(simDataPrefix):])
		if payload == simDoneSentinel {
			// Terminal sentinel: anything after it is ignored.
			s.buf = nil
			s.done = true
			return true, false
		}

		frame, decoded := decodeSimFrame(payload)
		if !decoded {
			if s.pending != line {
				// Possible torn frame: keep the line buffered and wait
				// for more bytes before retrying it once.
				s.pending = line
				return false, false
			}
			slog.Debug("sim_stream_malformed_frame", "payload_bytes", len(payload))
			s.pending = ""
			s.buf = rest
			continue
		}

		s.pending = ""
		s.buf = rest
		switch frame.kind {
		case frameDelta:
			if frame.delta == "" {
				continue
			}
			s.current = frame.delta
			return true, true
		default:
			slog.Debug("sim_stream_unrecognized_frame", "payload_bytes", len(payload))
			continue
		}
	}
}

func (s *simStream) Content() string {
	return s.current
}

func (s *simStream) Err() error {
	return s.err
}

func (s *simStream) Close() error {
	return s.body.Close()
}
