package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-storefront/internal/catalog"
	"go-storefront/internal/database"
	"go-storefront/internal/models"
	"go-storefront/internal/pricing"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// maxToolRounds caps how many tool calls one question may chain.
const maxToolRounds = 5

// Inventory is the priced catalog the assistant reads.
type Inventory interface {
	List(ctx context.Context, q catalog.ListQuery) ([]catalog.Item, error)
	Invalidate(ctx context.Context)
}

// Products is the raw product and discount store.
type Products interface {
	GetBySlug(ctx context.Context, slug string, now time.Time) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uint, updates map[string]interface{}) (*models.Product, error)
	LiveDiscounts(ctx context.Context, now time.Time) ([]models.Discount, error)
}

// Reports answers revenue questions.
type Reports interface {
	SalesReport(ctx context.Context, start, end time.Time) (*database.SalesReportResult, error)
}

// Agent is the admin assistant: a Gemini chat with shop tools attached.
type Agent struct {
	apiKey    string
	model     string
	inventory Inventory
	products  Products
	reports   Reports
	now       func() time.Time
}

func NewAgent(apiKey, model string, inventory Inventory, products Products, reports Reports) *Agent {
	return &Agent{
		apiKey:    apiKey,
		model:     model,
		inventory: inventory,
		products:  products,
		reports:   reports,
		now:       time.Now,
	}
}

// Enabled reports whether an API key is configured.
func (a *Agent) Enabled() bool {
	return a != nil && a.apiKey != ""
}

var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the full inventory list with stock, base price and the current discounted price of every product. Use this to find ANY product detail by name.",
			},
			{
				Name:        "list_live_discounts",
				Description: "List the discounts that are active right now and the products they cover.",
			},
			{
				Name:        "update_product_price",
				Description: "Update the base price (HUF) of a product identified by its slug",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"slug":           {Type: genai.TypeString, Description: "Slug of the product"},
						"base_price_huf": {Type: genai.TypeInteger, Description: "New base price in HUF"},
					},
					Required: []string{"slug", "base_price_huf"},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get paid revenue and order count for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
		},
	},
}

// Ask runs one question through the model, executing tool calls until the
// model answers in text.
func (a *Agent) Ask(ctx context.Context, userMessage string) (string, error) {
	if !a.Enabled() {
		return "", errors.New("assistant: AI_GEMINI_API_KEY is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = tools

	today := a.now().Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the back office assistant of an electronics web shop. Prices are whole HUF.

	RULES:
	1. UPDATE: If a user asks to change a price by product NAME, do NOT ask for the slug:
	   - Call 'check_inventory' to find the slug.
	   - Call 'update_product_price' with that slug.

	2. READ: For price, stock or discount questions call 'check_inventory'. The customer pays
	   'final_price_huf'; 'base_price_huf' is the list price before discounts.

	3. DISCOUNTS: To explain why a product is discounted, call 'list_live_discounts'.

	4. SALES: If the user asks for sales/revenue, use 'get_sales_report'.

	USER: %s`, today, userMessage)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}
		var replies []genai.Part
		for _, call := range calls {
			replies = append(replies, genai.FunctionResponse{
				Name:     call.Name,
				Response: a.runTool(ctx, call),
			})
		}
		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

// runTool executes one model tool call against the shop.
func (a *Agent) runTool(ctx context.Context, call genai.FunctionCall) map[string]any {
	log := zap.L().With(zap.String("tool", call.Name))
	switch call.Name {
	case "check_inventory":
		items, err := a.inventory.List(ctx, catalog.ListQuery{})
		if err != nil {
			log.Error("assistant tool failed", zap.Error(err))
			return map[string]any{"error": "could not read inventory"}
		}
		jsonBytes, _ := json.Marshal(items)
		return map[string]any{"inventory": string(jsonBytes)}

	case "list_live_discounts":
		discounts, err := a.products.LiveDiscounts(ctx, a.now())
		if err != nil {
			log.Error("assistant tool failed", zap.Error(err))
			return map[string]any{"error": "could not read discounts"}
		}
		type liveDiscount struct {
			pricing.Discount
			Name     string   `json:"name"`
			Products []string `json:"products"`
		}
		out := make([]liveDiscount, 0, len(discounts))
		for _, d := range discounts {
			ld := liveDiscount{Discount: catalog.Candidates([]models.Discount{d})[0], Name: d.Name}
			for _, p := range d.Products {
				ld.Products = append(ld.Products, p.Slug)
			}
			out = append(out, ld)
		}
		jsonBytes, _ := json.Marshal(out)
		return map[string]any{"discounts": string(jsonBytes)}

	case "update_product_price":
		slug, _ := call.Args["slug"].(string)
		price, ok := number(call.Args["base_price_huf"])
		if slug == "" || !ok || price < 0 {
			return map[string]any{"status": "invalid arguments"}
		}
		p, err := a.products.GetBySlug(ctx, slug, a.now())
		if errors.Is(err, database.ErrNotFound) {
			return map[string]any{"status": "Product not found"}
		}
		if err != nil {
			log.Error("assistant tool failed", zap.Error(err))
			return map[string]any{"error": "could not load product"}
		}
		if _, err := a.products.UpdateProduct(ctx, p.ID, map[string]interface{}{"base_price_huf": price}); err != nil {
			log.Error("assistant tool failed", zap.Error(err))
			return map[string]any{"error": "could not update price"}
		}
		a.inventory.Invalidate(ctx)
		log.Info("price updated by assistant", zap.String("slug", slug), zap.Int64("base_price_huf", price))
		return map[string]any{"status": "Success", "slug": slug, "base_price_huf": price}

	case "get_sales_report":
		startStr, _ := call.Args["start_date"].(string)
		endStr, _ := call.Args["end_date"].(string)
		start, err1 := time.Parse("2006-01-02", startStr)
		end, err2 := time.Parse("2006-01-02", endStr)
		if err1 != nil || err2 != nil {
			return map[string]any{"error": "Dates must be in YYYY-MM-DD format."}
		}
		end = end.Add(24*time.Hour - time.Second)

		report, err := a.reports.SalesReport(ctx, start, end)
		if err != nil {
			log.Error("assistant tool failed", zap.Error(err))
			return map[string]any{"error": "Error calculating sales."}
		}
		return map[string]any{
			"revenue_huf": report.TotalRevenue,
			"sales_count": report.TotalCount,
		}
	}
	return map[string]any{"error": "unknown tool " + call.Name}
}

// number accepts the float64 the model sends for integers.
func number(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, funcCall)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
