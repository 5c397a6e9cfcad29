package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/amraniy/whatsbot-backend/internal/gateway"
	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// flakyGateway fails sends to selected phones
type flakyGateway struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

func (g *flakyGateway) SendText(ctx context.Context, instance, to, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[to] {
		return fmt.Errorf("send to %s failed", to)
	}
	g.sent = append(g.sent, to)
	return nil
}

func (g *flakyGateway) SendMedia(ctx context.Context, instance, to, media, fileName, caption, mediaType string) error {
	return g.SendText(ctx, instance, to, caption)
}

func (g *flakyGateway) GetMessages(ctx context.Context, instance string) ([]gateway.Message, error) {
	return nil, nil
}

func (g *flakyGateway) DownloadMedia(ctx context.Context, instance, messageID string) ([]byte, error) {
	return nil, fmt.Errorf("no media")
}

func TestBroadcastOneFailureDoesNotAbortBatch(t *testing.T) {
	store := storage.NewMemoryStore()
	user, _ := store.CreateUser(&models.User{TelegramID: 7})
	for _, phone := range []string{"100", "200", "300"} {
		if _, err := store.UpsertContact(user.ID, phone, ""); err != nil {
			t.Fatalf("seed contact: %v", err)
		}
	}

	gw := &flakyGateway{failFor: map[string]bool{"200": true}}
	svc := NewBroadcastService(store, gw)
	svc.interval = time.Millisecond

	broadcast, _ := store.CreateBroadcast(&models.Broadcast{UserID: user.ID, Message: "sale today!"})
	if err := svc.Send(context.Background(), user, broadcast, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	if broadcast.SentCount != 2 || broadcast.FailedCount != 1 {
		t.Errorf("expected 2 sent / 1 failed, got %d / %d", broadcast.SentCount, broadcast.FailedCount)
	}
	if broadcast.Status != models.BroadcastStatusCompleted {
		t.Errorf("partial failure should still complete, got %s", broadcast.Status)
	}
	if len(gw.sent) != 2 {
		t.Errorf("expected 2 deliveries, got %d", len(gw.sent))
	}

	recipients := store.BroadcastRecipients(broadcast.ID)
	if len(recipients) != 3 {
		t.Fatalf("expected 3 recipient records, got %d", len(recipients))
	}
	var failed int
	for _, r := range recipients {
		if r.Status == models.RecipientStatusFailed {
			failed++
			if r.Error == "" {
				t.Error("failed recipient should record the error")
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed recipient record, got %d", failed)
	}
}

func TestBroadcastAllFailuresMarksFailed(t *testing.T) {
	store := storage.NewMemoryStore()
	user, _ := store.CreateUser(&models.User{TelegramID: 8})
	_, _ = store.UpsertContact(user.ID, "900", "")

	gw := &flakyGateway{failFor: map[string]bool{"900": true}}
	svc := NewBroadcastService(store, gw)
	svc.interval = time.Millisecond

	broadcast, _ := store.CreateBroadcast(&models.Broadcast{UserID: user.ID, Message: "hi"})
	if err := svc.Send(context.Background(), user, broadcast, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	if broadcast.Status != models.BroadcastStatusFailed {
		t.Errorf("expected failed status, got %s", broadcast.Status)
	}
}

func TestBroadcastSinceFilter(t *testing.T) {
	store := storage.NewMemoryStore()
	user, _ := store.CreateUser(&models.User{TelegramID: 9})

	old, _ := store.UpsertContact(user.ID, "111", "")
	stale := time.Now().AddDate(0, 0, -30)
	old.LastMessageAt = &stale
	_ = store.UpdateContact(old)
	_, _ = store.UpsertContact(user.ID, "222", "")

	gw := &flakyGateway{}
	svc := NewBroadcastService(store, gw)
	svc.interval = time.Millisecond

	since := time.Now().AddDate(0, 0, -7)
	broadcast, _ := store.CreateBroadcast(&models.Broadcast{UserID: user.ID, Message: "recent only"})
	if err := svc.Send(context.Background(), user, broadcast, &since); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(gw.sent) != 1 || gw.sent[0] != "222" {
		t.Errorf("expected only the recent contact, got %v", gw.sent)
	}
}
