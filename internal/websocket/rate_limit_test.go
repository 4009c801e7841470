package websocket

import (
	"testing"
	"time"
)

// test code update rate limiting (10/second)
func TestCodeUpdateRateLimit(t *testing.T) {
	client := &Client{
		codeUpdateTimestamps: make([]time.Time, 0, maxCodeUpdatesPerSecond),
	}

	for i := 0; i < maxCodeUpdatesPerSecond; i++ {
		if !client.checkCodeUpdateRateLimit() {
			t.Errorf("code update %d should have been allowed, but was rate limited", i+1)
		}
	}

	if client.checkCodeUpdateRateLimit() {
		t.Error("11th code update should have been rate limited, but was allowed")
	}

	if len(client.codeUpdateTimestamps) != maxCodeUpdatesPerSecond {
		t.Errorf("expected %d timestamps, got %d", maxCodeUpdatesPerSecond, len(client.codeUpdateTimestamps))
	}
}

// test code update rate limit window expiration (1 second window)
func TestCodeUpdateRateLimitWindowExpiration(t *testing.T) {
	client := &Client{}

	twoSecondsAgo := time.Now().Add(-2 * time.Second)
	for i := 0; i < maxCodeUpdatesPerSecond; i++ {
		client.codeUpdateTimestamps = append(client.codeUpdateTimestamps, twoSecondsAgo)
	}

	if !client.checkCodeUpdateRateLimit() {
		t.Error("code update should have been allowed after old timestamps expired")
	}

	if len(client.codeUpdateTimestamps) != 1 {
		t.Errorf("expected 1 timestamp after cleanup, got %d", len(client.codeUpdateTimestamps))
	}
}

// test execute rate limiting (6/minute)
func TestExecuteRateLimit(t *testing.T) {
	client := &Client{}

	for i := 0; i < maxExecutesPerMinute; i++ {
		if !client.checkExecuteRateLimit() {
			t.Errorf("execute %d should have been allowed", i+1)
		}
	}

	if client.checkExecuteRateLimit() {
		t.Error("execute over the limit should have been rate limited")
	}
}

func TestExecuteRateLimitWindowExpiration(t *testing.T) {
	client := &Client{}

	old := time.Now().Add(-61 * time.Second)
	for i := 0; i < maxExecutesPerMinute; i++ {
		client.executeTimestamps = append(client.executeTimestamps, old)
	}

	if !client.checkExecuteRateLimit() {
		t.Error("execute should have been allowed after the window passed")
	}
}
