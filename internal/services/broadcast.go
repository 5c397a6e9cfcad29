package services

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/amraniy/whatsbot-backend/internal/gateway"
	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// broadcastInterval spaces fan-out sends to respect transport throughput
const broadcastInterval = 2 * time.Second

// BroadcastService fans a campaign out to a tenant's contacts
type BroadcastService struct {
	store    storage.Store
	gw       gateway.Gateway
	interval time.Duration
}

// NewBroadcastService creates a broadcast runner
func NewBroadcastService(store storage.Store, gw gateway.Gateway) *BroadcastService {
	return &BroadcastService{store: store, gw: gw, interval: broadcastInterval}
}

// Send delivers the campaign to every contact (or only those active since
// the given time). One failed recipient never aborts the batch; each outcome
// is recorded independently.
func (b *BroadcastService) Send(ctx context.Context, user *models.User, broadcast *models.Broadcast, since *time.Time) error {
	var contacts []*models.Contact
	var err error
	if since != nil {
		contacts, err = b.store.GetContactsSince(user.ID, *since)
	} else {
		contacts, err = b.store.GetContacts(user.ID)
	}
	if err != nil {
		broadcast.Status = models.BroadcastStatusFailed
		_ = b.store.UpdateBroadcast(broadcast)
		return err
	}

	broadcast.TotalCount = len(contacts)
	broadcast.Status = models.BroadcastStatusSending
	if err := b.store.UpdateBroadcast(broadcast); err != nil {
		log.Printf("⚠️ Failed to mark broadcast #%d as sending: %v", broadcast.ID, err)
	}

	log.Printf("📢 Broadcast #%d starting: %d recipients", broadcast.ID, len(contacts))
	limiter := rate.NewLimiter(rate.Every(b.interval), 1)

	for _, contact := range contacts {
		if err := limiter.Wait(ctx); err != nil {
			// Context cancelled mid-campaign; record what we have
			broadcast.Status = models.BroadcastStatusFailed
			_ = b.store.UpdateBroadcast(broadcast)
			return err
		}

		sendErr := b.sendOne(ctx, user, broadcast, contact.Phone)
		recipient := &models.BroadcastRecipient{
			BroadcastID: broadcast.ID,
			Phone:       contact.Phone,
			Status:      models.RecipientStatusSent,
		}
		if sendErr != nil {
			recipient.Status = models.RecipientStatusFailed
			recipient.Error = sendErr.Error()
			broadcast.FailedCount++
			log.Printf("⚠️ Broadcast #%d: send to %s failed: %v", broadcast.ID, contact.Phone, sendErr)
		} else {
			broadcast.SentCount++
		}
		if err := b.store.AddBroadcastRecipient(recipient); err != nil {
			log.Printf("⚠️ Failed to record broadcast recipient: %v", err)
		}
	}

	if broadcast.SentCount == 0 && broadcast.TotalCount > 0 {
		broadcast.Status = models.BroadcastStatusFailed
	} else {
		broadcast.Status = models.BroadcastStatusCompleted
	}
	if err := b.store.UpdateBroadcast(broadcast); err != nil {
		log.Printf("⚠️ Failed to finalize broadcast #%d: %v", broadcast.ID, err)
	}

	log.Printf("✅ Broadcast #%d done: %d sent, %d failed", broadcast.ID, broadcast.SentCount, broadcast.FailedCount)
	return nil
}

func (b *BroadcastService) sendOne(ctx context.Context, user *models.User, broadcast *models.Broadcast, phone string) error {
	if broadcast.MediaURL != "" {
		return b.gw.SendMedia(ctx, user.InstanceName, phone, broadcast.MediaURL, "", broadcast.Message, broadcast.MediaType)
	}
	return b.gw.SendText(ctx, user.InstanceName, phone, broadcast.Message)
}
