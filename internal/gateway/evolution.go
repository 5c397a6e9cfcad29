package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// EvolutionGateway talks to an Evolution API server over HTTP
type EvolutionGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewEvolutionGateway creates a gateway client from environment variables
func NewEvolutionGateway() (*EvolutionGateway, error) {
	baseURL := os.Getenv("EVOLUTION_API_URL")
	apiKey := os.Getenv("EVOLUTION_API_KEY")
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("missing Evolution API credentials in environment variables")
	}

	return &EvolutionGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (g *EvolutionGateway) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("evolution api %s returned %d: %s", path, resp.StatusCode, string(data))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// SendText sends a plain text WhatsApp message
func (g *EvolutionGateway) SendText(ctx context.Context, instance, to, text string) error {
	payload := map[string]any{
		"number": to,
		"text":   text,
	}
	return g.post(ctx, "/message/sendText/"+instance, payload, nil)
}

// SendMedia sends a media message; media may be a URL or base64 payload
func (g *EvolutionGateway) SendMedia(ctx context.Context, instance, to, media, fileName, caption, mediaType string) error {
	payload := map[string]any{
		"number":    to,
		"mediatype": mediaType,
		"media":     media,
		"fileName":  fileName,
		"caption":   caption,
	}
	return g.post(ctx, "/message/sendMedia/"+instance, payload, nil)
}

// evolutionRecord mirrors the relevant slice of a findMessages record
type evolutionRecord struct {
	Key struct {
		ID           string `json:"id"`
		FromMe       bool   `json:"fromMe"`
		RemoteJid    string `json:"remoteJid"`
		RemoteJidAlt string `json:"remoteJidAlt"`
	} `json:"key"`
	PushName         string          `json:"pushName"`
	MessageTimestamp int64           `json:"messageTimestamp"`
	Message          json.RawMessage `json:"message"`
}

type evolutionMessageBody struct {
	Conversation        string `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
	AudioMessage *struct {
		URL string `json:"url"`
	} `json:"audioMessage"`
}

// GetMessages fetches the most recent messages for an instance
func (g *EvolutionGateway) GetMessages(ctx context.Context, instance string) ([]Message, error) {
	payload := map[string]any{
		"where":  map[string]any{},
		"page":   1,
		"offset": 50,
	}

	var result struct {
		Messages struct {
			Records []evolutionRecord `json:"records"`
		} `json:"messages"`
	}
	if err := g.post(ctx, "/chat/findMessages/"+instance, payload, &result); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(result.Messages.Records))
	for _, record := range result.Messages.Records {
		msg := Message{
			ID:          record.Key.ID,
			FromMe:      record.Key.FromMe,
			RemoteID:    record.Key.RemoteJid,
			RemoteIDAlt: record.Key.RemoteJidAlt,
			Timestamp:   record.MessageTimestamp,
			PushName:    record.PushName,
		}

		var body evolutionMessageBody
		if len(record.Message) > 0 {
			if err := json.Unmarshal(record.Message, &body); err == nil {
				switch {
				case body.Conversation != "":
					msg.Text = body.Conversation
				case body.ExtendedTextMessage != nil:
					msg.Text = body.ExtendedTextMessage.Text
				}
				if body.AudioMessage != nil {
					msg.AudioRef = record.Key.ID
				}
			}
		}

		messages = append(messages, msg)
	}
	return messages, nil
}

// DownloadMedia fetches and decodes the raw bytes of a media message
func (g *EvolutionGateway) DownloadMedia(ctx context.Context, instance, messageID string) ([]byte, error) {
	payload := map[string]any{
		"message": map[string]any{
			"key": map[string]any{"id": messageID},
		},
		"convertToMp4": false,
	}

	var result struct {
		Base64 string `json:"base64"`
	}
	if err := g.post(ctx, "/chat/getBase64FromMediaMessage/"+instance, payload, &result); err != nil {
		return nil, err
	}
	if result.Base64 == "" {
		return nil, fmt.Errorf("media message %s has no payload", messageID)
	}
	return base64.StdEncoding.DecodeString(result.Base64)
}

// ConnectionState returns the gateway-side connection state for an instance
func (g *EvolutionGateway) ConnectionState(ctx context.Context, instance string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/instance/connectionState/"+instance, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("evolution api connectionState returned %d", resp.StatusCode)
	}

	var result struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Instance.State, nil
}
