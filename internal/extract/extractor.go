// Package extract turns a menu photo into a draft product via a
// vision-capable chat-completions endpoint. The model's reply is treated as
// untrusted input: it must contain a JSON object with every required field
// or the extraction fails.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/product"
)

var ErrExtraction = errors.New("product extraction failed")

type Result struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
}

type Extractor interface {
	ExtractFromImage(ctx context.Context, imageBase64 string) (Result, error)
}

const extractionPrompt = `You are an expert at analyzing restaurant menu images. Extract the following information:

REQUIRED FIELDS:
- name: Product name (string)
- description: Brief description, 1-2 sentences (string)
- price: Price in IDR (number)
- category: food, drink, or dessert (string)

EXTRACTION RULES:
1. If price is not visible, estimate based on similar menu items
2. Description should be appealing and concise
3. Category must be one of: food, drink, dessert
4. Return valid JSON only

Now analyze the image:`

// ChatClient calls an OpenAI-compatible /v1/chat/completions endpoint.
type ChatClient struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

func NewChatClient(baseURL, apiKey, model string) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL    string `json:"url"`
		Detail string `json:"detail,omitempty"`
	} `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) ExtractFromImage(ctx context.Context, imageBase64 string) (Result, error) {
	if strings.TrimSpace(imageBase64) == "" {
		return Result{}, fmt.Errorf("%w: empty image", ErrExtraction)
	}

	image := chatContent{Type: "image_url"}
	image.ImageURL = &struct {
		URL    string `json:"url"`
		Detail string `json:"detail,omitempty"`
	}{
		URL:    "data:image/jpeg;base64," + imageBase64,
		Detail: "high",
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "text", Text: extractionPrompt},
				image,
			},
		}},
		MaxTokens:   1000,
		Temperature: 0.1,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: model endpoint returned %d", ErrExtraction, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrExtraction, err)
	}
	if len(out.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty completion", ErrExtraction)
	}

	return ParseResult(out.Choices[0].Message.Content)
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// ParseResult pulls the JSON object out of a model reply and validates it.
func ParseResult(output string) (Result, error) {
	match := jsonObjectRe.FindString(output)
	if match == "" {
		return Result{}, fmt.Errorf("%w: no JSON object in model output", ErrExtraction)
	}

	var raw struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
	}
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	if strings.TrimSpace(raw.Name) == "" {
		return Result{}, fmt.Errorf("%w: missing required field: name", ErrExtraction)
	}
	if strings.TrimSpace(raw.Description) == "" {
		return Result{}, fmt.Errorf("%w: missing required field: description", ErrExtraction)
	}
	if raw.Price <= 0 {
		return Result{}, fmt.Errorf("%w: invalid price", ErrExtraction)
	}
	if !product.ValidCategory(raw.Category) {
		return Result{}, fmt.Errorf("%w: invalid category %q", ErrExtraction, raw.Category)
	}

	return Result{
		Name:        strings.TrimSpace(raw.Name),
		Description: strings.TrimSpace(raw.Description),
		Price:       int64(raw.Price),
		Category:    raw.Category,
	}, nil
}
