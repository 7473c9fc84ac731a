package telegram

import (
	"testing"
	"time"
)

func TestNewClient_InvalidToken(t *testing.T) {
	// An empty token fails bot initialization before anything is sent.
	if _, err := NewClient("", "123456", 3, time.Second); err == nil {
		t.Error("expected error for invalid bot token")
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// Token validation happens first (network call) and fails for a bogus
	// token; either way a non-numeric chat ID must never yield a client.
	if _, err := NewClient("", "not-a-number", 3, time.Second); err == nil {
		t.Error("expected error for invalid chat ID")
	}
}
