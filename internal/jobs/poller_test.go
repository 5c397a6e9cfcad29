package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/amraniy/whatsbot-backend/internal/ai"
	"github.com/amraniy/whatsbot-backend/internal/gateway"
	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/services"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// deadlineGateway serves one batch of inbound messages and records the
// deadline of the context its sends run under.
type deadlineGateway struct {
	messages     []gateway.Message
	sent         int
	sendDeadline *time.Time
}

func (g *deadlineGateway) SendText(ctx context.Context, instance, to, text string) error {
	if dl, ok := ctx.Deadline(); ok {
		g.sendDeadline = &dl
	}
	g.sent++
	return nil
}

func (g *deadlineGateway) SendMedia(ctx context.Context, instance, to, media, fileName, caption, mediaType string) error {
	return nil
}

func (g *deadlineGateway) GetMessages(ctx context.Context, instance string) ([]gateway.Message, error) {
	return g.messages, nil
}

func (g *deadlineGateway) DownloadMedia(ctx context.Context, instance, messageID string) ([]byte, error) {
	return nil, nil
}

func TestPollOnceHandlesMessagesWithoutPollDeadline(t *testing.T) {
	store := storage.NewMemoryStore()
	user, err := store.CreateUser(&models.User{TelegramID: 1, InstanceName: "inst-1", IsConnected: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.CreateAutoReply(&models.AutoReply{UserID: user.ID, Keyword: "ping", Reply: "pong"}); err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	gw := &deadlineGateway{messages: []gateway.Message{{
		ID:        "poll-1",
		RemoteID:  "966555000777@s.whatsapp.net",
		Timestamp: time.Now().Add(-time.Minute).Unix(),
		Text:      "ping",
	}}}

	dispatcher := services.NewDispatcher(
		store, gw,
		services.NewMemorySeenLedger(services.DefaultSeenCap),
		services.NewWorkingHoursGate(store),
		services.NewKeywordMatcher(store),
		services.NewConversationService(store),
		services.NewAIReplyEngine(ai.NewRegistry()),
		services.NewOrderService(store, gw, nil, services.NewInvoiceService()),
		nil,
	)

	p := NewMessagePoller(store, gw, dispatcher)
	p.pollOnce()

	if gw.sent != 1 {
		t.Fatalf("expected 1 reply from the pull path, got %d", gw.sent)
	}
	if gw.sendDeadline != nil {
		t.Errorf("reply ran under a poll-scoped deadline expiring at %v", *gw.sendDeadline)
	}
}
