package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "file.saved", Data: map[string]string{"theme": "shop", "path": "sections/hero.html"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: file.saved") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"sections/hero.html"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishThemeEvent_DraftThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger draft.changed.
	b.PublishThemeEvent("saved", "shop", "sections/hero.html")
	// Second event immediately should NOT trigger another draft.changed.
	b.PublishThemeEvent("deleted", "shop", "assets/app.css")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	draftCount := 0
	fileCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "draft.changed") {
				draftCount++
			} else {
				fileCount++
			}
		default:
			break loop
		}
	}

	if fileCount != 2 {
		t.Errorf("file events = %d, want 2", fileCount)
	}
	if draftCount != 1 {
		t.Errorf("draft.changed events = %d, want 1 (throttled)", draftCount)
	}
}

func TestPublishThemeEvent_Kinds(t *testing.T) {
	b := NewBroker(time.Hour) // suppress draft.changed after the first
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishThemeEvent("published", "shop", "")
	b.PublishThemeEvent("rolledback", "shop", "")

	time.Sleep(50 * time.Millisecond)
	var got []string
loop:
	for {
		select {
		case msg := <-ch:
			got = append(got, string(msg))
		default:
			break loop
		}
	}

	joined := strings.Join(got, "")
	if !strings.Contains(joined, "event: theme.published") {
		t.Errorf("missing theme.published in %q", joined)
	}
	if !strings.Contains(joined, "event: theme.rolledback") {
		t.Errorf("missing theme.rolledback in %q", joined)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "file.saved", Data: map[string]string{"theme": "shop"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: file.saved") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "file.saved", Data: map[string]string{"path": "x"}})
	b.PublishThemeEvent("saved", "shop", "x")
}
