package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != defaultFromName {
		t.Errorf("expected default from name %q, got %q", defaultFromName, sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})
	if err == nil {
		t.Error("expected error when client is nil")
	}

	var nilSender *SendGridSender
	if err := nilSender.Send(context.Background(), EmailMessage{}); err == nil {
		t.Error("expected error from nil sender")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})
	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Fatal("expected nil sender without client")
	}
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{FromEmail: "agenda@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "ana@example.com",
		ReplyTo: "kine@example.com",
		Subject: "Reserva confirmada",
		Body:    "text",
		HTML:    "<p>html</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := client.input
	if got := aws.ToString(in.FromEmailAddress); got != defaultFromName+" <agenda@example.com>" {
		t.Errorf("unexpected from %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "ana@example.com" {
		t.Errorf("unexpected destination %v", in.Destination.ToAddresses)
	}
	if len(in.ReplyToAddresses) != 1 || in.ReplyToAddresses[0] != "kine@example.com" {
		t.Errorf("unexpected reply-to %v", in.ReplyToAddresses)
	}
	if aws.ToString(in.Content.Simple.Body.Text.Data) != "text" {
		t.Errorf("text body missing")
	}
	if aws.ToString(in.Content.Simple.Body.Html.Data) != "<p>html</p>" {
		t.Errorf("html body missing")
	}
}

func TestSESSender_SendError(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	sender := NewSESSender(client, SESConfig{FromEmail: "agenda@example.com"}, nil)

	if err := sender.Send(context.Background(), EmailMessage{To: "ana@example.com"}); err == nil {
		t.Fatal("expected error")
	}
}
