package practicum

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(endpoint, "secret", 2*time.Second, testLogger())
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	return c
}

func TestGetAPIAnswer_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "OAuth secret" {
			t.Errorf("Authorization = %q, want %q", got, "OAuth secret")
		}
		if got := r.URL.Query().Get("from_date"); got != "1700000000" {
			t.Errorf("from_date = %q, want 1700000000", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"homeworks": [{"homework_name": "hw1", "status": "approved"}], "current_date": 1700000100}`))
	}))
	defer server.Close()

	payload, err := newTestClient(t, server.URL).GetAPIAnswer(context.Background(), 1700000000)
	if err != nil {
		t.Fatalf("GetAPIAnswer() unexpected error: %v", err)
	}

	resp, err := homework.CheckResponse(payload)
	if err != nil {
		t.Fatalf("CheckResponse() unexpected error: %v", err)
	}
	if !resp.HasHomeworks() || resp.CurrentDate != 1700000100 {
		t.Errorf("decoded response = %+v", resp)
	}
}

func TestGetAPIAnswer_KeepsEndpointQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lang"); got != "ru" {
			t.Errorf("lang = %q, want ru", got)
		}
		if got := r.URL.Query().Get("from_date"); got != "0" {
			t.Errorf("from_date = %q, want 0", got)
		}
		_, _ = w.Write([]byte(`{"homeworks": [], "current_date": 1}`))
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL+"?lang=ru").GetAPIAnswer(context.Background(), 0); err != nil {
		t.Fatalf("GetAPIAnswer() unexpected error: %v", err)
	}
}

func TestGetAPIAnswer_BadStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	payload, err := newTestClient(t, server.URL).GetAPIAnswer(context.Background(), 1)
	if payload != nil {
		t.Errorf("GetAPIAnswer() payload = %v, want nil", payload)
	}

	var apiErr *homework.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetAPIAnswer() error = %v, want *homework.Error", err)
	}
	if apiErr.Kind != homework.KindUpstreamStatus {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, homework.KindUpstreamStatus)
	}
	if apiErr.Code != http.StatusServiceUnavailable {
		t.Errorf("Code = %d, want 503", apiErr.Code)
	}
	if !strings.Contains(apiErr.Error(), "503") {
		t.Errorf("Error() = %q, want it to contain the status code", apiErr.Error())
	}
}

func TestGetAPIAnswer_InvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"garbage", "<html>oops</html>"},
		{"array", `[1, 2, 3]`},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			payload, err := newTestClient(t, server.URL).GetAPIAnswer(context.Background(), 1)
			if err != nil {
				t.Errorf("GetAPIAnswer() unexpected error: %v", err)
			}
			if payload != nil {
				t.Errorf("GetAPIAnswer() payload = %v, want nil", payload)
			}
		})
	}
}

func TestGetAPIAnswer_OversizedBody(t *testing.T) {
	// valid JSON, only its size is wrong
	body := `{"homeworks": [], "current_date": 1, "padding": "` + strings.Repeat("x", maxResponseBodySize) + `"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	l, hook := logtest.NewNullLogger()
	c, err := NewClient(server.URL, "secret", 2*time.Second, logrus.NewEntry(l))
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}

	payload, err := c.GetAPIAnswer(context.Background(), 1)
	if err != nil {
		t.Errorf("GetAPIAnswer() unexpected error: %v", err)
	}
	if payload != nil {
		t.Errorf("GetAPIAnswer() payload has %d keys, want nil", len(payload))
	}
	last := hook.LastEntry()
	if last == nil || !strings.Contains(last.Message, "too large") {
		t.Errorf("last log entry = %+v, want the oversize error", last)
	}
	for _, entry := range hook.AllEntries() {
		if strings.Contains(entry.Message, "invalid JSON") {
			t.Errorf("oversized body logged as invalid JSON: %q", entry.Message)
		}
	}
}

func TestGetAPIAnswer_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close() // nothing listens anymore

	_, err := newTestClient(t, endpoint).GetAPIAnswer(context.Background(), 1)
	if homework.KindOf(err) != homework.KindNetwork {
		t.Fatalf("GetAPIAnswer() error = %v, want network error", err)
	}
}

func TestGetAPIAnswer_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c, err := NewClient(server.URL, "secret", 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}

	_, err = c.GetAPIAnswer(context.Background(), 1)
	if homework.KindOf(err) != homework.KindNetwork {
		t.Fatalf("GetAPIAnswer() error = %v, want network error", err)
	}
}

func TestGetAPIAnswer_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"homeworks": [], "current_date": 1}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server.URL).GetAPIAnswer(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("GetAPIAnswer() error = %v, want context.Canceled", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		token    string
	}{
		{"bad scheme", "ftp://example.com", "secret"},
		{"unparsable", "http://[::1", "secret"},
		{"empty token", "https://example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.endpoint, tt.token, time.Second, testLogger()); err == nil {
				t.Error("NewClient() expected error, got nil")
			}
		})
	}
}
