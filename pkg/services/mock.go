package services

import (
	"context"
	"strings"
	"time"
)

// OfflineReply is sent, and stored, whenever the LLM cannot be reached.
const OfflineReply = "I'm currently in offline mode (Mock). My brain (LLM) seems disconnected, but I can still chat! How are you feeling?"

// OfflineTokens splits the offline reply into the word chunks that are
// streamed, each carrying its trailing space.
func OfflineTokens() []string {
	words := strings.Split(OfflineReply, " ")
	tokens := make([]string, len(words))
	for i, w := range words {
		tokens[i] = w + " "
	}
	return tokens
}

// StreamOffline emits OfflineTokens with delay after each one, typing-style.
// It stops early when ctx is done or onDelta fails.
func StreamOffline(ctx context.Context, delay time.Duration, onDelta func(string) error) error {
	for _, tok := range OfflineTokens() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onDelta(tok); err != nil {
			return err
		}
		sleepWithContext(ctx, delay)
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
