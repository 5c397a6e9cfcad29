package gateway

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioGateway sends WhatsApp messages through Twilio. It is webhook-only:
// Twilio pushes inbound messages, so the polling path is unsupported.
type TwilioGateway struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

// NewTwilioGateway creates a Twilio-backed gateway from environment variables
func NewTwilioGateway() (*TwilioGateway, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioGateway{client: client, from: from}, nil
}

// SendText sends a WhatsApp message via Twilio. The instance is ignored:
// one Twilio sender number serves the whole deployment.
func (t *TwilioGateway) SendText(ctx context.Context, instance, to, text string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))
	params.SetBody(text)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// SendMedia sends a WhatsApp media message via Twilio. Twilio only accepts
// media by URL, so base64 payloads cannot be delivered through this gateway.
func (t *TwilioGateway) SendMedia(ctx context.Context, instance, to, media, fileName, caption, mediaType string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))
	params.SetBody(caption)
	params.SetMediaUrl([]string{media})

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp media: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp media sent! SID: %s", *resp.Sid)
	return nil
}

// GetMessages is unsupported; Twilio delivers inbound messages by webhook only
func (t *TwilioGateway) GetMessages(ctx context.Context, instance string) ([]Message, error) {
	return nil, ErrPollingUnsupported
}

// DownloadMedia is unsupported for the Twilio transport
func (t *TwilioGateway) DownloadMedia(ctx context.Context, instance, messageID string) ([]byte, error) {
	return nil, ErrPollingUnsupported
}
