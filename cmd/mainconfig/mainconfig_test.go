package mainconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/wolfman30/kinesio-agenda/internal/config"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "secret",
	}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsCfg.Region != "us-east-1" {
		t.Fatalf("expected region us-east-1, got %q", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "test" {
		t.Fatalf("expected static credentials, got %q", creds.AccessKeyID)
	}
}

func TestNewSESClientEndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "secret",
		AWSEndpointOverride: "http://localhost:4566",
	}

	client, err := NewSESClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(client.Options().BaseEndpoint); got != "http://localhost:4566" {
		t.Fatalf("expected endpoint override, got %q", got)
	}
}

func TestBuildAppMemoryBackend(t *testing.T) {
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

	app, err := BuildApp(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("build app: %v", err)
	}

	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
