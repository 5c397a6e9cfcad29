package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amraniy/whatsbot-backend/internal/ai"
	"github.com/amraniy/whatsbot-backend/internal/models"
)

// fakeProvider returns a canned completion or error and records the call
type fakeProvider struct {
	response   string
	err        error
	calls      int
	lastSystem string
	lastTurns  []ai.Turn
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, systemPrompt string, turns []ai.Turn) (string, error) {
	p.calls++
	p.lastSystem = systemPrompt
	p.lastTurns = turns
	return p.response, p.err
}

func registryWith(p ai.Provider) *ai.Registry {
	r := ai.NewRegistry()
	r.Register("fake", func(apiKey, model string) ai.Provider { return p })
	return r
}

func fakeSettings() *models.AISettings {
	return &models.AISettings{
		UserID: 1, Provider: "fake", APIKey: "key", Language: "en",
		IsActive: true, HistoryLimit: 10,
	}
}

const orderedResponse = "Great, your order is confirmed!\n" +
	"```ORDER_JSON\n" +
	`{"order_detected": true, "customer_name": "Sara", "customer_address": "12 Olaya St",` +
	` "products": [{"name": "Pizza", "quantity": 2, "price": 15}, {"name": "Cola", "quantity": 1, "price": 12}],` +
	` "delivery_price": 0, "total_price": 42, "phone": "+966555000111", "notes": ""}` + "\n```"

func TestParseResponsePlainText(t *testing.T) {
	engine := NewAIReplyEngine(ai.NewRegistry())

	result := engine.ParseResponse("Hello! How can I help you today?")
	if result.OrderDetected {
		t.Error("no block present: order must not be detected")
	}
	if result.Reply != "Hello! How can I help you today?" {
		t.Errorf("reply altered: %q", result.Reply)
	}
}

func TestParseResponseStripsOrderBlock(t *testing.T) {
	engine := NewAIReplyEngine(ai.NewRegistry())

	result := engine.ParseResponse(orderedResponse)
	if !result.OrderDetected {
		t.Fatal("expected order to be detected")
	}
	if strings.Contains(result.Reply, "ORDER_JSON") || strings.Contains(result.Reply, "```") {
		t.Errorf("block delimiters leaked into visible reply: %q", result.Reply)
	}
	if strings.Contains(result.Reply, "order_detected") || strings.Contains(result.Reply, "customer_name") {
		t.Errorf("raw field names leaked into visible reply: %q", result.Reply)
	}
	if result.Reply != "Great, your order is confirmed!" {
		t.Errorf("unexpected visible reply: %q", result.Reply)
	}

	order := result.Order
	if len(order.Products) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Products))
	}
	if float64(order.TotalPrice) != 42 {
		t.Errorf("expected total 42, got %v", order.TotalPrice)
	}
	if order.CustomerName != "Sara" {
		t.Errorf("expected customer Sara, got %q", order.CustomerName)
	}
}

func TestParseResponseDefensiveCoercion(t *testing.T) {
	engine := NewAIReplyEngine(ai.NewRegistry())

	raw := "Done!\n```ORDER_JSON\n" +
		`{"order_detected": true, "products": [{"name": "Burger", "price": "abc"}, {"name": "Fries", "quantity": "3", "price": "7.5"}],` +
		` "delivery_price": "free", "total_price": "30"}` + "\n```"

	result := engine.ParseResponse(raw)
	if !result.OrderDetected {
		t.Fatal("expected order to be detected")
	}

	first := result.Order.Products[0]
	if float64(first.Price) != 0 {
		t.Errorf("unparseable price should coerce to 0, got %v", first.Price)
	}
	if int(first.Quantity) != 1 {
		t.Errorf("missing quantity should default to 1, got %d", first.Quantity)
	}

	second := result.Order.Products[1]
	if int(second.Quantity) != 3 || float64(second.Price) != 7.5 {
		t.Errorf("stringly-typed numbers should parse: %+v", second)
	}
	if float64(result.Order.DeliveryPrice) != 0 {
		t.Errorf("unparseable delivery price should coerce to 0, got %v", result.Order.DeliveryPrice)
	}
	if float64(result.Order.TotalPrice) != 30 {
		t.Errorf("expected total 30, got %v", result.Order.TotalPrice)
	}
}

func TestParseResponseMalformedBlockStillStripped(t *testing.T) {
	engine := NewAIReplyEngine(ai.NewRegistry())

	raw := "Your order:\n```ORDER_JSON\n{this is not json}\n```"
	result := engine.ParseResponse(raw)
	if result.OrderDetected {
		t.Error("malformed block must not signal an order")
	}
	if strings.Contains(result.Reply, "ORDER_JSON") || strings.Contains(result.Reply, "not json") {
		t.Errorf("malformed block leaked into visible reply: %q", result.Reply)
	}
}

func TestReplyProviderFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	engine := NewAIReplyEngine(registryWith(provider))

	result := engine.Reply(context.Background(), fakeSettings(), "My Store", "", []ai.Turn{
		{Role: models.RoleUser, Content: "hello"},
	})

	if result.Reply != fallbackReplies["en"] {
		t.Errorf("expected english fallback, got %q", result.Reply)
	}
	if result.OrderDetected {
		t.Error("fallback must not detect an order")
	}
}

func TestReplyUnknownProviderFallsBack(t *testing.T) {
	engine := NewAIReplyEngine(ai.NewRegistry())
	settings := fakeSettings()
	settings.Provider = "nonexistent"
	settings.Language = "ar"

	result := engine.Reply(context.Background(), settings, "", "", nil)
	if result.Reply != fallbackReplies["ar"] {
		t.Errorf("expected arabic fallback, got %q", result.Reply)
	}
}

func TestBuildPromptComposition(t *testing.T) {
	engine := NewAIReplyEngine(ai.NewRegistry())
	settings := fakeSettings()
	settings.SystemPrompt = "We only deliver inside Riyadh."

	prompt := engine.BuildPrompt(settings, "Pizza Palace", "Pizza Margherita - 15 SAR")

	for _, want := range []string{
		"Pizza Palace",
		"ORDER_JSON",
		"We only deliver inside Riyadh.",
		"Pizza Margherita - 15 SAR",
		"ONE missing piece",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReplySendsFullHistory(t *testing.T) {
	provider := &fakeProvider{response: "sure!"}
	engine := NewAIReplyEngine(registryWith(provider))

	history := []ai.Turn{
		{Role: models.RoleUser, Content: "do you have pizza?"},
		{Role: models.RoleAssistant, Content: "yes we do"},
		{Role: models.RoleUser, Content: "one please"},
	}
	engine.Reply(context.Background(), fakeSettings(), "", "", history)

	if provider.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.calls)
	}
	if len(provider.lastTurns) != 3 {
		t.Errorf("expected full bounded history (3 turns), got %d", len(provider.lastTurns))
	}
	if provider.lastSystem == "" {
		t.Error("system prompt was not passed to the provider")
	}
}
