package alerts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hostboard/hostboard/internal/config"
)

func testEvent() Event {
	return Event{Metric: MetricCPU, Value: 95.5, Threshold: 90, FiredAt: t0}
}

// startTarget runs a capture server and points the given env var at it.
func startTarget(t *testing.T, envVar string, status int) (bodies *[]string) {
	t.Helper()
	var mu sync.Mutex
	captured := []string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, string(b))
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	t.Setenv(envVar, srv.URL)
	return &captured
}

func TestWebhook_SlackPayload(t *testing.T) {
	bodies := startTarget(t, "TEST_WH_SLACK", http.StatusOK)
	n := NewWebhookNotifier(config.WebhookConfig{Format: "slack", URLEnv: "TEST_WH_SLACK"})

	if err := n.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(*bodies) != 1 {
		t.Fatalf("requests: got %d, want 1", len(*bodies))
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte((*bodies)[0]), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !strings.Contains(payload["text"], "cpu at 95.5%") {
		t.Errorf("slack text: got %q", payload["text"])
	}
}

func TestWebhook_GenericPayloadCarriesEvent(t *testing.T) {
	bodies := startTarget(t, "TEST_WH_HTTP", http.StatusOK)
	n := NewWebhookNotifier(config.WebhookConfig{Format: "http", URLEnv: "TEST_WH_HTTP"})

	if err := n.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	var payload struct {
		Alert Event `json:"alert"`
	}
	if err := json.Unmarshal([]byte((*bodies)[0]), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Alert.Metric != MetricCPU || payload.Alert.Threshold != 90 {
		t.Errorf("alert payload: got %+v", payload.Alert)
	}
}

func TestWebhook_TeamsPayload(t *testing.T) {
	bodies := startTarget(t, "TEST_WH_TEAMS", http.StatusOK)
	n := NewWebhookNotifier(config.WebhookConfig{Format: "teams", URLEnv: "TEST_WH_TEAMS"})

	if err := n.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte((*bodies)[0]), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["@type"] != "MessageCard" {
		t.Errorf("@type: got %v, want MessageCard", payload["@type"])
	}
}

func TestWebhook_ErrorStatus(t *testing.T) {
	startTarget(t, "TEST_WH_FAIL", http.StatusInternalServerError)
	n := NewWebhookNotifier(config.WebhookConfig{Format: "slack", URLEnv: "TEST_WH_FAIL"})

	if err := n.Send(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error on HTTP 500, got nil")
	}
}

func TestWebhook_EmptyURL(t *testing.T) {
	n := NewWebhookNotifier(config.WebhookConfig{Format: "slack", URLEnv: "TEST_WH_UNSET_VAR"})
	if err := n.Send(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error for empty webhook URL, got nil")
	}
}

func TestNewNotifier_Selection(t *testing.T) {
	n, err := NewNotifier(config.NotifierConfig{Type: "log"})
	if err != nil {
		t.Fatalf("log notifier: %v", err)
	}
	if _, ok := n.(LogNotifier); !ok {
		t.Errorf("notifier: got %T, want LogNotifier", n)
	}

	n, err = NewNotifier(config.NotifierConfig{
		Type:    "webhook",
		Webhook: config.WebhookConfig{Format: "slack", URLEnv: "X"},
	})
	if err != nil {
		t.Fatalf("webhook notifier: %v", err)
	}
	if _, ok := n.(*WebhookNotifier); !ok {
		t.Errorf("notifier: got %T, want *WebhookNotifier", n)
	}

	if _, err := NewNotifier(config.NotifierConfig{Type: "pigeon"}); err == nil {
		t.Error("expected error for unknown notifier type")
	}
}

func TestNewNotifier_EmailRequiresKey(t *testing.T) {
	_, err := NewNotifier(config.NotifierConfig{
		Type:  "email",
		Email: config.EmailConfig{From: "a@b.c", To: []string{"x@y.z"}, APIKeyEnv: "TEST_UNSET_RESEND_KEY"},
	})
	if err == nil {
		t.Fatal("expected error when API key env is empty")
	}

	t.Setenv("TEST_SET_RESEND_KEY", "re_123")
	n, err := NewNotifier(config.NotifierConfig{
		Type:  "email",
		Email: config.EmailConfig{From: "a@b.c", To: []string{"x@y.z"}, APIKeyEnv: "TEST_SET_RESEND_KEY"},
	})
	if err != nil {
		t.Fatalf("email notifier: %v", err)
	}
	if _, ok := n.(*EmailNotifier); !ok {
		t.Errorf("notifier: got %T, want *EmailNotifier", n)
	}
}

// LogNotifier always succeeds.
func TestLogNotifier_NeverFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if err := (LogNotifier{}).Send(ctx, testEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
