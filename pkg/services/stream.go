package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// LineDecoder splits an arbitrarily chunked byte stream into complete lines.
// A trailing fragment without '\n' is held until the next Feed or Flush, so
// an event split across two reads comes out whole.
type LineDecoder struct {
	pending []byte
}

// Feed appends chunk and returns every line it completed, without the
// terminating "\n" or "\r\n". Blank lines are dropped.
func (d *LineDecoder) Feed(chunk []byte) []string {
	d.pending = append(d.pending, chunk...)
	var lines []string
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		if line := trimLine(d.pending[:i]); line != "" {
			lines = append(lines, line)
		}
		d.pending = d.pending[i+1:]
	}
	// reclaim the consumed prefix once nothing is left over
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return lines
}

// Flush returns the buffered unterminated line, if any, and resets the decoder.
func (d *LineDecoder) Flush() []string {
	line := trimLine(d.pending)
	d.pending = nil
	if line == "" {
		return nil
	}
	return []string{line}
}

func trimLine(b []byte) string {
	s := strings.TrimRight(string(b), "\r")
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// ParseEventLine extracts the delta token from one "data: {json}" line.
// It returns ("", nil) for the end marker, for events without content, and
// for lines that are not data lines; malformed JSON is an error.
func ParseEventLine(line string) (string, error) {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return "", nil
	}
	if payload == doneMarker {
		return "", nil
	}
	var event openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return "", fmt.Errorf("decode stream event: %w", err)
	}
	if len(event.Choices) == 0 {
		return "", nil
	}
	return event.Choices[0].Delta.Content, nil
}
