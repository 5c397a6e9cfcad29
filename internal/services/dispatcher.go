package services

import (
	"context"
	"log"
	"time"

	"github.com/amraniy/whatsbot-backend/internal/ai"
	"github.com/amraniy/whatsbot-backend/internal/gateway"
	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// DefaultEchoWindow rejects messages whose reported timestamp trails "now"
// too closely; those are provider-side echoes, not new events.
const DefaultEchoWindow = 2 * time.Second

// Dispatcher sequences the per-message decision pipeline. Both delivery
// paths (webhook push and poller pull) funnel into HandleMessage; the seen
// ledger guarantees at most one of them proceeds per message id.
type Dispatcher struct {
	store    storage.Store
	gw       gateway.Gateway
	ledger   SeenLedger
	gate     *WorkingHoursGate
	matcher  *KeywordMatcher
	memory   *ConversationService
	engine   *AIReplyEngine
	orders   *OrderService
	notifier *Notifier

	echoWindow time.Duration
	now        func() time.Time
}

// NewDispatcher wires the pipeline. notifier may be nil when no Telegram
// bot is configured.
func NewDispatcher(
	store storage.Store,
	gw gateway.Gateway,
	ledger SeenLedger,
	gate *WorkingHoursGate,
	matcher *KeywordMatcher,
	memory *ConversationService,
	engine *AIReplyEngine,
	orders *OrderService,
	notifier *Notifier,
) *Dispatcher {
	return &Dispatcher{
		store:      store,
		gw:         gw,
		ledger:     ledger,
		gate:       gate,
		matcher:    matcher,
		memory:     memory,
		engine:     engine,
		orders:     orders,
		notifier:   notifier,
		echoWindow: DefaultEchoWindow,
		now:        time.Now,
	}
}

// HandleMessage runs the full decision pipeline for one inbound message.
// Transport noise (duplicates, echoes, own messages, missing ids) is dropped
// silently; it is not an error condition.
func (d *Dispatcher) HandleMessage(ctx context.Context, user *models.User, msg gateway.Message) {
	// Messages without an id cannot be deduplicated safely
	if msg.ID == "" || msg.FromMe {
		return
	}

	// Echo suppression runs before the ledger: a message still inside the
	// window is skipped without being marked, so a later delivery picks it
	// up once it has aged past the window.
	if msg.Timestamp > 0 {
		if d.now().Sub(time.Unix(msg.Timestamp, 0)) < d.echoWindow {
			return
		}
	}

	// Atomic check-and-mark: exactly one delivery path wins the race.
	// Marking happens before any suspension point.
	if !d.ledger.MarkIfNew(ctx, msg.ID) {
		return
	}

	phone := msg.SenderPhone()
	if phone == "" {
		return
	}

	settings, err := d.store.GetAISettings(user.ID)
	if err != nil {
		log.Printf("⚠️ Failed to load AI settings for user %d: %v", user.ID, err)
	}

	text := msg.Text
	if text == "" && msg.AudioRef != "" && settings.Usable() {
		text = d.transcribe(ctx, user, settings, msg)
	}
	if text == "" {
		return
	}

	log.Printf("📥 [%s] message from %s: %s", user.InstanceName, phone, truncate(text, 80))

	contact, err := d.store.UpsertContact(user.ID, phone, msg.PushName)
	if err != nil {
		log.Printf("⚠️ Failed to upsert contact %s: %v", phone, err)
	}

	if d.notifier != nil {
		d.notifier.NotifyIncoming(user, contact, text)
	}

	// Working-hours gate. A storage failure fails open: configuration
	// problems must never block messaging.
	open, closedMsg, err := d.gate.IsOpenNow(user.ID)
	if err != nil {
		log.Printf("⚠️ Working-hours check failed for user %d: %v", user.ID, err)
		open = true
	}
	if !open {
		if err := d.gw.SendText(ctx, user.InstanceName, phone, closedMsg); err != nil {
			log.Printf("⚠️ Failed to send outside-hours message to %s: %v", phone, err)
		}
		return
	}

	// Keyword auto-reply beats the AI
	rule, err := d.matcher.FindMatch(user.ID, text)
	if err != nil {
		log.Printf("⚠️ Keyword lookup failed for user %d: %v", user.ID, err)
	}
	if rule != nil {
		d.sendAutoReply(ctx, user, phone, rule)
		return
	}

	// Operator has taken manual control of this conversation
	if contact != nil && contact.IsAIPaused {
		return
	}

	if !settings.Usable() {
		return
	}

	d.runAI(ctx, user, settings, phone, text)
}

func (d *Dispatcher) transcribe(ctx context.Context, user *models.User, settings *models.AISettings, msg gateway.Message) string {
	audio, err := d.gw.DownloadMedia(ctx, user.InstanceName, msg.AudioRef)
	if err != nil {
		log.Printf("⚠️ Failed to download voice note %s: %v", msg.AudioRef, err)
		return ""
	}
	transcript, err := ai.TranscribeAudio(ctx, settings.APIKey, audio)
	if err != nil {
		log.Printf("⚠️ Transcription failed for %s: %v", msg.AudioRef, err)
		return ""
	}
	log.Printf("🎤 Voice note transcribed (%d chars)", len(transcript))
	return transcript
}

func (d *Dispatcher) sendAutoReply(ctx context.Context, user *models.User, phone string, rule *models.AutoReply) {
	log.Printf("🔑 Keyword '%s' matched for %s", rule.Keyword, phone)

	if rule.MediaURL != "" {
		err := d.gw.SendMedia(ctx, user.InstanceName, phone, rule.MediaURL, "", rule.Reply, rule.MediaType)
		if err != nil {
			log.Printf("⚠️ Failed to send auto-reply media to %s: %v", phone, err)
		}
		return
	}
	if err := d.gw.SendText(ctx, user.InstanceName, phone, rule.Reply); err != nil {
		log.Printf("⚠️ Failed to send auto-reply to %s: %v", phone, err)
	}
}

func (d *Dispatcher) runAI(ctx context.Context, user *models.User, settings *models.AISettings, phone, text string) {
	history, err := d.memory.Recent(user.ID, phone, settings.HistoryLimit)
	if err != nil {
		log.Printf("⚠️ Failed to load conversation history for %s: %v", phone, err)
	}
	history = append(history, ai.Turn{Role: models.RoleUser, Content: text})

	if err := d.memory.Append(user.ID, phone, models.RoleUser, text); err != nil {
		log.Printf("⚠️ Failed to save user turn for %s: %v", phone, err)
	}

	catalog := ""
	if sheets, err := d.store.GetSheetsSettings(user.ID); err == nil && sheets != nil && sheets.IsActive {
		catalog = sheets.CachedContext
	}

	result := d.engine.Reply(ctx, settings, user.StoreName, catalog, history)

	if err := d.gw.SendText(ctx, user.InstanceName, phone, result.Reply); err != nil {
		log.Printf("⚠️ Failed to send AI reply to %s: %v", phone, err)
		return
	}

	if err := d.memory.Append(user.ID, phone, models.RoleAssistant, result.Reply); err != nil {
		log.Printf("⚠️ Failed to save assistant turn for %s: %v", phone, err)
	}

	if result.OrderDetected && result.Order != nil {
		d.orders.ProcessDetected(ctx, user, phone, result.Order)
	}
}
