package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/amraniy/whatsbot-backend/internal/ai"
	"github.com/amraniy/whatsbot-backend/internal/models"
)

// orderBlockMarker opens the fenced structured block an AI reply may embed
// to signal a detected purchase. The customer must never see it.
const orderBlockMarker = "```ORDER_JSON"

// defaultProviderTimeout bounds every provider call; an unbounded hang must
// never block message handling for other tenants.
const defaultProviderTimeout = 45 * time.Second

// fallbackReplies is sent when the provider fails, per tenant language
var fallbackReplies = map[string]string{
	"ar": "عذراً، الخدمة غير متوفرة حالياً. يرجى المحاولة بعد قليل.",
	"en": "Sorry, the service is temporarily unavailable. Please try again shortly.",
	"fr": "Désolé, le service est temporairement indisponible. Veuillez réessayer.",
	"de": "Entschuldigung, der Dienst ist vorübergehend nicht verfügbar. Bitte versuchen Sie es später erneut.",
}

// FlexFloat tolerates numbers arriving as strings or null from the LLM.
// Unparseable values coerce to 0 instead of failing the whole order.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// FlexInt tolerates quantities arriving as strings, floats or null
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	if s == "null" || s == "" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*i = 0
		return nil
	}
	*i = FlexInt(v)
	return nil
}

// OrderLine is one line item as emitted by the AI
type OrderLine struct {
	Name     string    `json:"name"`
	Quantity FlexInt   `json:"quantity"`
	Price    FlexFloat `json:"price"`
}

// OrderData is the structured payload embedded in an AI reply
type OrderData struct {
	OrderDetected   bool        `json:"order_detected"`
	CustomerName    string      `json:"customer_name"`
	CustomerAddress string      `json:"customer_address"`
	Products        []OrderLine `json:"products"`
	DeliveryPrice   FlexFloat   `json:"delivery_price"`
	TotalPrice      FlexFloat   `json:"total_price"`
	Phone           string      `json:"phone"`
	Notes           string      `json:"notes"`
}

// ReplyResult is what the engine hands back to the orchestrator. Reply is
// always populated, even on provider failure.
type ReplyResult struct {
	Reply         string
	OrderDetected bool
	Order         *OrderData
}

// AIReplyEngine builds prompts, calls the configured provider and parses the
// completion into a visible reply plus an optional order payload.
type AIReplyEngine struct {
	registry *ai.Registry
	timeout  time.Duration
}

// NewAIReplyEngine creates an engine on the given provider registry
func NewAIReplyEngine(registry *ai.Registry) *AIReplyEngine {
	return &AIReplyEngine{registry: registry, timeout: defaultProviderTimeout}
}

// BuildPrompt composes the system prompt: fixed operating rules, the
// order-emission protocol, the tenant's custom instructions and the optional
// product-catalog context.
func (e *AIReplyEngine) BuildPrompt(settings *models.AISettings, storeName, catalogContext string) string {
	language := settings.Language
	if language == "" {
		language = "ar"
	}
	if storeName == "" {
		storeName = "the store"
	}

	var sb strings.Builder
	sb.WriteString("You are a friendly sales and customer support assistant for " + storeName + ".\n")
	sb.WriteString("Always respond in language: " + language + ".\n")
	sb.WriteString("Help customers choose products, answer questions about prices and availability, and take orders.\n")
	sb.WriteString("When taking an order, ask for ONE missing piece of information at a time (name, then delivery address), never everything at once.\n")
	sb.WriteString("Keep replies short and suitable for WhatsApp.\n\n")

	sb.WriteString("ORDER PROTOCOL:\n")
	sb.WriteString("Only when the customer has confirmed the order, or has provided both their name and delivery address with clear intent to proceed, append this block at the END of your reply:\n")
	sb.WriteString(orderBlockMarker + "\n")
	sb.WriteString(`{"order_detected": true, "customer_name": "...", "customer_address": "...", "products": [{"name": "...", "quantity": 1, "price": 0}], "delivery_price": 0, "total_price": 0, "phone": "...", "notes": "..."}` + "\n")
	sb.WriteString("```\n")
	sb.WriteString("Never mention this block to the customer and never emit it before the order is final.\n")

	if custom := strings.TrimSpace(settings.SystemPrompt); custom != "" {
		sb.WriteString("\nBUSINESS INSTRUCTIONS:\n")
		sb.WriteString(custom)
		sb.WriteString("\n")
	}
	if catalogContext != "" {
		sb.WriteString("\nPRODUCT CATALOG (use this to answer product and price questions):\n")
		sb.WriteString(catalogContext)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Reply invokes the provider and parses the completion. Provider failures
// are converted into a language-appropriate fallback, never propagated.
func (e *AIReplyEngine) Reply(ctx context.Context, settings *models.AISettings, storeName, catalogContext string, history []ai.Turn) ReplyResult {
	provider, err := e.registry.New(providerName(settings), settings.APIKey, settings.ModelName)
	if err != nil {
		log.Printf("⚠️ AI provider setup failed for user %d: %v", settings.UserID, err)
		return ReplyResult{Reply: fallbackReply(settings.Language)}
	}

	systemPrompt := e.BuildPrompt(settings, storeName, catalogContext)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := provider.Complete(callCtx, systemPrompt, history)
	if err != nil {
		log.Printf("⚠️ AI provider %s failed for user %d: %v", provider.Name(), settings.UserID, err)
		return ReplyResult{Reply: fallbackReply(settings.Language)}
	}

	return e.ParseResponse(raw)
}

// ParseResponse splits the raw completion into the customer-visible reply
// and the optional order payload. Whenever the marker is present the block
// is stripped, even if its contents fail to parse; the customer must never
// see the delimiters or raw fields.
func (e *AIReplyEngine) ParseResponse(raw string) ReplyResult {
	idx := strings.Index(raw, orderBlockMarker)
	if idx < 0 {
		return ReplyResult{Reply: strings.TrimSpace(raw)}
	}

	inner := raw[idx+len(orderBlockMarker):]
	end := strings.Index(inner, "```")
	var blockJSON, tail string
	if end >= 0 {
		blockJSON = inner[:end]
		tail = inner[end+3:]
	} else {
		blockJSON = inner
	}

	reply := strings.TrimSpace(raw[:idx] + tail)

	var data OrderData
	if err := json.Unmarshal([]byte(strings.TrimSpace(blockJSON)), &data); err != nil {
		log.Printf("⚠️ Order block parse failed, treating as no order: %v", err)
		return ReplyResult{Reply: reply}
	}

	normalizeOrder(&data)
	return ReplyResult{
		Reply:         reply,
		OrderDetected: data.OrderDetected,
		Order:         &data,
	}
}

// normalizeOrder applies safe defaults to untrusted LLM output
func normalizeOrder(data *OrderData) {
	for i := range data.Products {
		if data.Products[i].Quantity < 1 {
			data.Products[i].Quantity = 1
		}
		if data.Products[i].Price < 0 {
			data.Products[i].Price = 0
		}
	}
	if data.DeliveryPrice < 0 {
		data.DeliveryPrice = 0
	}
	if data.TotalPrice < 0 {
		data.TotalPrice = 0
	}
}

func providerName(settings *models.AISettings) string {
	if settings.Provider == "" {
		return "gemini"
	}
	return settings.Provider
}

func fallbackReply(language string) string {
	if msg, ok := fallbackReplies[language]; ok {
		return msg
	}
	return fallbackReplies["en"]
}

// ItemsFromOrderData converts parsed lines into persistable order items
func ItemsFromOrderData(data *OrderData) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(data.Products))
	for _, line := range data.Products {
		items = append(items, models.OrderItem{
			Name:     line.Name,
			Quantity: int(line.Quantity),
			Price:    float64(line.Price),
		})
	}
	return items
}

// String renders an order summary for operator notifications
func (d *OrderData) String() string {
	var sb strings.Builder
	for _, line := range d.Products {
		sb.WriteString(fmt.Sprintf("- %s x%d (%.2f)\n", line.Name, int(line.Quantity), float64(line.Price)))
	}
	return sb.String()
}
