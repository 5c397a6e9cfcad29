package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/amraniy/whatsbot-backend/internal/gateway"
	"github.com/amraniy/whatsbot-backend/internal/services"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// pollInterval matches the gateway's own message retention granularity
const pollInterval = 5 * time.Second

// MessagePoller is the pull-side delivery path: it periodically fetches
// recent messages for every connected instance and feeds them to the
// dispatcher. The seen ledger inside the dispatcher keeps this path from
// double-processing anything the webhook already handled.
type MessagePoller struct {
	store      storage.Store
	gw         gateway.Gateway
	dispatcher *services.Dispatcher
	isRunning  bool
	stop       chan struct{}
}

// NewMessagePoller creates the poller
func NewMessagePoller(store storage.Store, gw gateway.Gateway, dispatcher *services.Dispatcher) *MessagePoller {
	return &MessagePoller{
		store:      store,
		gw:         gw,
		dispatcher: dispatcher,
		stop:       make(chan struct{}),
	}
}

// Start launches the polling loop in the background
func (p *MessagePoller) Start() {
	if p.isRunning {
		return
	}
	p.isRunning = true

	go func() {
		log.Println("📡 Message poller started")
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stop:
				log.Println("📡 Message poller stopped")
				return
			case <-ticker.C:
				p.pollOnce()
			}
		}
	}()
}

// Stop signals the polling loop to exit
func (p *MessagePoller) Stop() {
	if !p.isRunning {
		return
	}
	p.isRunning = false
	close(p.stop)
}

func (p *MessagePoller) pollOnce() {
	users, err := p.store.GetConnectedUsers()
	if err != nil {
		log.Printf("⚠️ Poller: failed to list connected users: %v", err)
		return
	}

	for _, user := range users {
		fetchCtx, cancel := context.WithTimeout(context.Background(), pollInterval)
		messages, err := p.gw.GetMessages(fetchCtx, user.InstanceName)
		cancel()
		if err != nil {
			if errors.Is(err, gateway.ErrPollingUnsupported) {
				return // webhook-only transport, nothing to pull
			}
			log.Printf("⚠️ Poller: fetch failed for %s: %v", user.InstanceName, err)
			continue
		}

		// Handling is not bounded by the poll tick. AI completions and
		// media sends run on their own budgets, same as the webhook path.
		for _, msg := range messages {
			p.dispatcher.HandleMessage(context.Background(), user, msg)
		}
	}
}
