package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"HealthAssist/models"
	"HealthAssist/pkg/logger"
)

type RelayState int

const (
	StateAwaitingUpstream RelayState = iota
	StateStreaming
	StateCompleted
	StateOfflineFallback
)

func (s RelayState) String() string {
	switch s {
	case StateAwaitingUpstream:
		return "awaiting-upstream"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateOfflineFallback:
		return "offline-fallback"
	default:
		return fmt.Sprintf("RelayState(%d)", int(s))
	}
}

var (
	ErrPersistUserMessage = errors.New("failed to store user message")
	ErrStreamConsumed     = errors.New("chat stream already consumed")
)

const readChunkSize = 4096

// MessageAppender is the slice of the conversation store the relay needs.
type MessageAppender interface {
	Append(ctx context.Context, msg *models.ConversationMessage) error
}

// ChatRelay stores a user's chat message, streams the assistant reply from
// the LLM as plain text and stores the reply once it is complete.
type ChatRelay struct {
	messages      MessageAppender
	upstream      CompletionStreamer
	fallbackDelay time.Duration
	log           *logger.Logger
}

func NewChatRelay(messages MessageAppender, upstream CompletionStreamer, fallbackDelay time.Duration, log *logger.Logger) *ChatRelay {
	return &ChatRelay{
		messages:      messages,
		upstream:      upstream,
		fallbackDelay: fallbackDelay,
		log:           log.With("service", "ChatRelay"),
	}
}

// ChatStream is one relayed reply. Open leaves it in StateStreaming or
// StateOfflineFallback; Pipe drives it to the end.
type ChatStream struct {
	relay    *ChatRelay
	userID   string
	state    RelayState
	body     io.ReadCloser
	consumed bool
}

// Open persists the user message and then opens the upstream stream. A failed
// insert is returned wrapping ErrPersistUserMessage and a ctx cancelled while
// connecting returns ctx's error. An unreachable upstream yields a stream in
// StateOfflineFallback.
func (r *ChatRelay) Open(ctx context.Context, userID, message string) (*ChatStream, error) {
	userMsg := &models.ConversationMessage{UserID: userID, Role: models.RoleUser, Content: message}
	if err := r.messages.Append(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistUserMessage, err)
	}

	cs := &ChatStream{relay: r, userID: userID, state: StateAwaitingUpstream}
	body, err := r.upstream.StreamCompletion(ctx, message)
	if err != nil && ctx.Err() != nil {
		// the caller went away; the upstream was never judged
		return nil, fmt.Errorf("open upstream: %w", ctx.Err())
	}
	if err != nil {
		r.log.Warn("llm unavailable, using offline reply", "userID", userID, "error", err)
		cs.state = StateOfflineFallback
		return cs, nil
	}
	cs.body = body
	cs.state = StateStreaming
	return cs, nil
}

func (cs *ChatStream) State() RelayState { return cs.state }

func (cs *ChatStream) Offline() bool { return cs.state == StateOfflineFallback }

// Pipe forwards every token to onDelta as soon as it is decoded and stores
// the assembled assistant reply at the end. The returned text is what was
// stored, possibly alongside an error from a broken upstream or downstream.
func (cs *ChatStream) Pipe(ctx context.Context, onDelta func(string) error) (string, error) {
	if cs.consumed {
		return "", ErrStreamConsumed
	}
	cs.consumed = true
	r := cs.relay

	switch cs.state {
	case StateOfflineFallback:
		streamErr := StreamOffline(ctx, r.fallbackDelay, onDelta)
		return OfflineReply, errors.Join(streamErr, cs.storeReply(ctx, OfflineReply))
	case StateStreaming:
		defer cs.body.Close()
		text, streamErr := cs.translate(onDelta)
		cs.state = StateCompleted
		if streamErr != nil {
			r.log.Warn("chat stream ended early", "userID", cs.userID, "error", streamErr)
		}
		if text == "" {
			return "", streamErr
		}
		return text, errors.Join(streamErr, cs.storeReply(ctx, text))
	default:
		return "", fmt.Errorf("pipe in state %s", cs.state)
	}
}

// translate reads the upstream body chunk by chunk, decoding "data: " events
// into tokens. Malformed events are logged and skipped.
func (cs *ChatStream) translate(onDelta func(string) error) (string, error) {
	var (
		dec  LineDecoder
		full strings.Builder
		buf  = make([]byte, readChunkSize)
	)

	handle := func(lines []string) error {
		for _, line := range lines {
			tok, err := ParseEventLine(line)
			if err != nil {
				cs.relay.log.Warn("skipping malformed stream event", "userID", cs.userID, "line", truncate(line, 200), "error", err)
				continue
			}
			if tok == "" {
				continue
			}
			full.WriteString(tok)
			if err := onDelta(tok); err != nil {
				return fmt.Errorf("write downstream: %w", err)
			}
		}
		return nil
	}

	for {
		n, readErr := cs.body.Read(buf)
		if n > 0 {
			if err := handle(dec.Feed(buf[:n])); err != nil {
				return full.String(), err
			}
		}
		if errors.Is(readErr, io.EOF) {
			return full.String(), handle(dec.Flush())
		}
		if readErr != nil {
			return full.String(), fmt.Errorf("read upstream: %w", readErr)
		}
	}
}

// storeReply ignores cancellation of ctx; a reply cut short by a disconnect
// is still recorded.
func (cs *ChatStream) storeReply(ctx context.Context, text string) error {
	msg := &models.ConversationMessage{UserID: cs.userID, Role: models.RoleAssistant, Content: text}
	if err := cs.relay.messages.Append(context.WithoutCancel(ctx), msg); err != nil {
		cs.relay.log.Error("failed to store assistant reply", "userID", cs.userID, "error", err)
		return err
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
