package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"atlascoffee/internal/model"
)

const baristaPrompt = `You are Atlas Coffee's friendly AI barista assistant.
You only talk about coffee, drinks, pastries, or Atlas Coffee.
If someone asks unrelated questions, reply:
"I'm sorry, I can only help with coffee or Atlas Coffee-related questions."
Keep replies short and friendly.`

// LLMClient calls an OpenAI-style chat-completions endpoint.
type LLMClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewLLMClient(baseURL, apiKey, model string) *LLMClient {
	return &LLMClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *LLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var res completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("empty completion")
	}

	return strings.TrimSpace(res.Choices[0].Message.Content), nil
}

// Completer is the LLM dependency of ChatService.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// PastOrderFinder supplies a customer's completed orders for the
// recommendation heuristic.
type PastOrderFinder interface {
	CompletedByEmail(ctx context.Context, email string, limit int) ([]model.Order, error)
}

// MenuFinder supplies the menu for recommendations.
type MenuFinder interface {
	List(ctx context.Context) ([]model.MenuItem, error)
	ListByCategory(ctx context.Context, category string) ([]model.MenuItem, error)
}

type ChatService struct {
	llm    Completer
	orders PastOrderFinder
	menu   MenuFinder
}

func NewChatService(llm Completer, orders PastOrderFinder, menu MenuFinder) *ChatService {
	return &ChatService{llm: llm, orders: orders, menu: menu}
}

var recommendationKeywords = []string{
	"recommend", "suggestion", "suggest", "what should i",
	"what do you recommend", "what's good", "best coffee",
	"what to order", "help me choose", "surprise me",
}

func asksForRecommendation(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range recommendationKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Reply answers a chat message. Recommendation questions from a known
// customer are answered from their order history; everything else goes to
// the language model with the barista prompt.
func (s *ChatService) Reply(ctx context.Context, email, message string) (string, error) {
	if asksForRecommendation(message) && email != "" && email != model.SentinelEmail {
		return s.recommend(ctx, email)
	}
	return s.llm.Complete(ctx, baristaPrompt, message)
}

func (s *ChatService) recommend(ctx context.Context, email string) (string, error) {
	past, err := s.orders.CompletedByEmail(ctx, email, 10)
	if err != nil {
		return "", fmt.Errorf("load order history: %w", err)
	}

	if len(past) == 0 {
		bestSellers, err := s.menu.ListByCategory(ctx, "Coffee")
		if err != nil {
			return "", fmt.Errorf("load best sellers: %w", err)
		}
		names := itemNames(bestSellers, 3)
		if len(names) == 0 {
			return "Ask me again once our menu is up, and I'll find you something great!", nil
		}
		return fmt.Sprintf("Since this is your first time, I recommend trying our best sellers: %s. They're customer favorites!",
			strings.Join(names, ", ")), nil
	}

	// Tally how often the customer ordered each item.
	itemFreq := map[string]int{}
	for _, order := range past {
		for _, item := range order.Items {
			qty := item.Qty
			if qty < 1 {
				qty = 1
			}
			itemFreq[item.Name] += qty
		}
	}

	menuItems, err := s.menu.List(ctx)
	if err != nil {
		return "", fmt.Errorf("load menu: %w", err)
	}

	categoryByName := map[string]string{}
	for _, item := range menuItems {
		categoryByName[item.Name] = item.Category
	}

	categoryFreq := map[string]int{}
	for name, count := range itemFreq {
		if category, ok := categoryByName[name]; ok {
			categoryFreq[category] += count
		}
	}

	favoriteCategory := topKey(categoryFreq)
	mostOrdered := topKey(itemFreq)

	var untried []model.MenuItem
	var elsewhere []model.MenuItem
	for _, item := range menuItems {
		if _, ordered := itemFreq[item.Name]; ordered {
			continue
		}
		if item.Category == favoriteCategory {
			untried = append(untried, item)
		} else {
			elsewhere = append(elsewhere, item)
		}
	}

	if len(untried) > 0 {
		return fmt.Sprintf("Based on your love for %s, I think you'll enjoy these %s options: %s! They have a similar vibe but different flavors.",
			mostOrdered, favoriteCategory, strings.Join(itemNames(untried, 3), ", ")), nil
	}

	if len(elsewhere) > 0 {
		var suggestions []string
		for _, item := range elsewhere {
			suggestions = append(suggestions, fmt.Sprintf("%s (%s)", item.Name, item.Category))
			if len(suggestions) == 3 {
				break
			}
		}
		return fmt.Sprintf("You've tried most of our %s! How about exploring something new? Try: %s!",
			favoriteCategory, strings.Join(suggestions, ", ")), nil
	}

	return fmt.Sprintf("You've tried everything on the menu! Your favorite %s is always a safe bet.", mostOrdered), nil
}

func itemNames(items []model.MenuItem, limit int) []string {
	var names []string
	for _, item := range items {
		names = append(names, item.Name)
		if len(names) == limit {
			break
		}
	}
	return names
}

func topKey(freq map[string]int) string {
	var best string
	bestCount := -1
	for key, count := range freq {
		if count > bestCount || (count == bestCount && key < best) {
			best, bestCount = key, count
		}
	}
	return best
}
