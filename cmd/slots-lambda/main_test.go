package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wolfman30/kinesio-agenda/internal/app/bootstrap"
	"github.com/wolfman30/kinesio-agenda/internal/calendar"
	appconfig "github.com/wolfman30/kinesio-agenda/internal/config"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

func newTestHandler(t *testing.T) (http.Handler, *calendar.MemoryGateway) {
	t.Helper()
	cfg := &appconfig.Config{
		CalendarBackend:      "memory",
		CalendarTimeout:      time.Second,
		WorkStartHour:        9,
		WorkEndHour:          18,
		SlotDuration:         time.Hour,
		Timezone:             "America/Santiago",
		EmailProvider:        "stub",
		NotifyTimeout:        time.Second,
		BookingRatePerMinute: 10,
		BookingRateBurst:     5,
	}
	gw := calendar.NewMemoryGateway()
	app, err := bootstrap.Build(context.Background(), cfg, bootstrap.Deps{Calendar: gw}, logging.New("error"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return app.Handler, gw
}

func event(method, path, query, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath:        path,
		RawQueryString: query,
		Body:           body,
		Headers:        map[string]string{"content-type": "application/json"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			DomainName: "agenda.example",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "203.0.113.9",
			},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	handler, _ := newTestHandler(t)

	resp, err := newLambdaHandler(handler, nil)(context.Background(), event(http.MethodGet, "/health", "", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := header(resp, "Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type, got %q", got)
	}
}

func TestHandleListSlots(t *testing.T) {
	handler, _ := newTestHandler(t)

	resp, err := newLambdaHandler(handler, nil)(context.Background(), event(http.MethodGet, "/api/slots", "date=2025-03-10", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	var slots []map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &slots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(slots) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(slots))
	}
}

func TestHandleMissingDate(t *testing.T) {
	handler, _ := newTestHandler(t)

	resp, _ := newLambdaHandler(handler, nil)(context.Background(), event(http.MethodGet, "/api/slots", "", ""))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleBase64Booking(t *testing.T) {
	handler, gw := newTestHandler(t)

	payload := `{"date":"2025-03-10","time":"10:00","name":"Ana","phone":"+56911112222","address":"Av. X 123"}`
	evt := event(http.MethodPost, "/api/slots", "", base64.StdEncoding.EncodeToString([]byte(payload)))
	evt.IsBase64Encoded = true

	resp, err := newLambdaHandler(handler, nil)(context.Background(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	if gw.Len() != 1 {
		t.Fatalf("expected event written")
	}
}

func TestHandleInvalidBase64(t *testing.T) {
	handler, _ := newTestHandler(t)

	evt := event(http.MethodPost, "/api/slots", "", "not-base64!!")
	evt.IsBase64Encoded = true

	resp, _ := newLambdaHandler(handler, nil)(context.Background(), evt)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func header(resp events.APIGatewayV2HTTPResponse, name string) string {
	for k, v := range resp.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func TestHandleGzipResponseIsBase64(t *testing.T) {
	handler, _ := newTestHandler(t)

	evt := event(http.MethodGet, "/api/slots", "date=2025-03-10", "")
	evt.Headers["accept-encoding"] = "gzip, deflate, br"

	resp, err := newLambdaHandler(handler, nil)(context.Background(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header(resp, "Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, got %q", header(resp, "Content-Encoding"))
	}
	if !resp.IsBase64Encoded {
		t.Fatalf("expected compressed body to be base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Body)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gunzip: %v", err)
	}
	var slots []map[string]any
	if err := json.Unmarshal(plain, &slots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(slots) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(slots))
	}
}

func TestHandlePinsClientIPToSourceIP(t *testing.T) {
	var seen http.Header
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	})

	evt := event(http.MethodGet, "/health", "", "")
	evt.Headers["X-Real-Ip"] = "198.51.100.1"
	evt.Headers["x-forwarded-for"] = "198.51.100.2, 10.0.0.1"
	evt.Headers["true-client-ip"] = "198.51.100.3"

	if _, err := newLambdaHandler(handler, nil)(context.Background(), evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := seen.Get("X-Real-Ip"); got != "203.0.113.9" {
		t.Fatalf("expected source ip, got %q", got)
	}
	if seen.Get("X-Forwarded-For") != "" || seen.Get("True-Client-Ip") != "" {
		t.Fatalf("expected spoofable headers dropped, got %v", seen)
	}
	if evt.Headers["X-Real-Ip"] != "198.51.100.1" {
		t.Fatalf("expected caller's event headers untouched")
	}
}

func TestHandleSpoofedIPDoesNotBypassBookingLimit(t *testing.T) {
	handler, _ := newTestHandler(t)
	proxy := newLambdaHandler(handler, nil)

	var last int
	for i := 0; i < 6; i++ {
		evt := event(http.MethodPost, "/api/slots", "", "{")
		evt.Headers["x-real-ip"] = fmt.Sprintf("198.51.100.%d", i+1)
		evt.Headers["x-forwarded-for"] = fmt.Sprintf("192.0.2.%d", i+1)
		resp, err := proxy(context.Background(), evt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		last = resp.StatusCode
		if i < 5 && last != http.StatusBadRequest {
			t.Fatalf("request %d: expected 400, got %d", i, last)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected limiter keyed on source ip to return 429, got %d", last)
	}
}
