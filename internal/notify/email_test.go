package notify

import (
	"context"
	"errors"
	"net/mail"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-portal/pkg/logging"
)

func TestNewSendGridSenderNilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "front@clinic.test"}, nil))
}

func TestNewSendGridSenderDefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "key", FromEmail: "front@clinic.test"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "Clinic Portal", sender.from.name)
}

type fakeSendGrid struct {
	sent   *sgmail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	f.sent = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendGridSenderSend(t *testing.T) {
	client := &fakeSendGrid{status: 202}
	sender := &SendGridSender{client: client, from: newSender("front@clinic.test", "Clinic"), logger: logging.Default()}

	err := sender.Send(context.Background(), EmailMessage{
		To: "john@example.com", ToName: "John Doe", ReplyTo: "desk@clinic.test",
		Tag: "appointment.created.v1", Subject: "Booked", Body: "See you",
	})
	require.NoError(t, err)
	require.NotNil(t, client.sent)
	assert.Equal(t, "Booked", client.sent.Subject)
	assert.Equal(t, "front@clinic.test", client.sent.From.Address)
	require.NotNil(t, client.sent.ReplyTo)
	assert.Equal(t, "desk@clinic.test", client.sent.ReplyTo.Address)
	assert.Equal(t, []string{"appointment.created.v1"}, client.sent.Categories)

	assert.ErrorIs(t, sender.Send(context.Background(), EmailMessage{Subject: "nobody"}), errNoRecipient)

	client.status = 500
	assert.ErrorContains(t, sender.Send(context.Background(), EmailMessage{To: "john@example.com"}), "status 500")

	client.err = errors.New("dial tcp")
	assert.ErrorContains(t, sender.Send(context.Background(), EmailMessage{To: "john@example.com"}), "sendgrid send failed")
}

func TestSendGridSenderNilClient(t *testing.T) {
	err := (&SendGridSender{}).Send(context.Background(), EmailMessage{To: "john@example.com"})
	assert.Error(t, err)
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
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESSenderSend(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{FromEmail: "front@clinic.test"}, nil)
	require.NotNil(t, sender)

	err := sender.Send(context.Background(), EmailMessage{
		To: "john@example.com", ReplyTo: "desk@clinic.test", Tag: "appointment deleted",
		Subject: "Booked", Body: "text", HTML: "<p>html</p>",
	})
	require.NoError(t, err)
	from, err := mail.ParseAddress(aws.ToString(client.input.FromEmailAddress))
	require.NoError(t, err)
	assert.Equal(t, "Clinic Portal", from.Name)
	assert.Equal(t, "front@clinic.test", from.Address)
	assert.Equal(t, []string{"desk@clinic.test"}, client.input.ReplyToAddresses)
	require.Len(t, client.input.EmailTags, 1)
	assert.Equal(t, "appointment_deleted", aws.ToString(client.input.EmailTags[0].Value))
	assert.Equal(t, []string{"john@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "text", aws.ToString(client.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(client.input.Content.Simple.Body.Html.Data))

	client.err = errors.New("throttled")
	assert.ErrorContains(t, sender.Send(context.Background(), EmailMessage{To: "john@example.com"}), "SES send failed")
}

func TestNewSESSenderNilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}

func TestStubEmailSenderSend(t *testing.T) {
	stub := NewStubEmailSender(nil)
	assert.NoError(t, stub.Send(context.Background(), EmailMessage{To: "john@example.com"}))
	assert.ErrorIs(t, stub.Send(context.Background(), EmailMessage{}), errNoRecipient)
}

func TestSelectEmailSender(t *testing.T) {
	sg := SendGridConfig{APIKey: "key", FromEmail: "front@clinic.test"}
	ses := &fakeSES{}

	tests := []struct {
		name string
		opts ProviderOptions
		want any
	}{
		{"auto prefers sendgrid", ProviderOptions{Provider: "auto", SendGrid: sg, SESClient: ses, SES: SESConfig{FromEmail: "a@b.c"}}, &SendGridSender{}},
		{"auto falls back to ses", ProviderOptions{Provider: "auto", SESClient: ses, SES: SESConfig{FromEmail: "a@b.c"}}, &SESSender{}},
		{"explicit ses", ProviderOptions{Provider: "ses", SendGrid: sg, SESClient: ses, SES: SESConfig{FromEmail: "a@b.c"}}, &SESSender{}},
		{"sendgrid without key", ProviderOptions{Provider: "sendgrid"}, &StubEmailSender{}},
		{"stub", ProviderOptions{Provider: "stub", SendGrid: sg}, &StubEmailSender{}},
		{"nothing configured", ProviderOptions{Provider: "auto"}, &StubEmailSender{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.want, SelectEmailSender(tt.opts, nil))
		})
	}
}
