package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	geminiModel     = "gemini-3-flash-preview"
	geminiLiteModel = "gemini-2.5-flash-lite"
)

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion      = 0.50
	geminiOutputPricePerMillion     = 3.00
	geminiLiteInputPricePerMillion  = 0.075
	geminiLiteOutputPricePerMillion = 0.30
)

const tagSuggestionPrompt = `Проаналізуй це фото товару для оголошення на барахолці.

Назва товару: %s
Опис: %s

Запропонуй 3-5 хештегів українською мовою, які допоможуть покупцям знайти цей товар. Кожен хештег починається з #, без пробілів усередині, маленькими літерами.

Приклади хороших хештегів: #велосипед, #дитячийодяг, #техніка, #меблі, #вінтаж

Відповідай JSON-об'єктом зі списком "tags".
Приклад: {"tags": ["#велосипед", "#спорт", "#дорослий"]}

Відповідай ТІЛЬКИ JSON-об'єктом, без markdown чи іншого тексту.`

const assistantSystemPrompt = `Ти — помічник Telegram-барахолки, де люди продають і купують вживані речі. Користувача звати %s.

Правила:
- Відповідай українською мовою, коротко і дружньо (1-3 речення).
- Допомагай з питаннями про продаж: як скласти оголошення, як сфотографувати товар, яку ціну поставити, як працює модерація.
- Команди бота: /sell — створити оголошення, /my — мої оголошення, /phone — додати телефон, /cancel — скасувати.
- Якщо питання не стосується барахолки, ввічливо поверни розмову до теми.

Повідомлення користувача: %s`

// Assistant is the LLM surface the bot depends on. Both methods are safe for
// concurrent use.
type Assistant interface {
	SuggestTags(ctx context.Context, photo []byte, name, description string) ([]string, error)
	Reply(ctx context.Context, userName, message string) (string, error)
}

// GeminiAssistant implements Assistant using Google's Gemini API.
type GeminiAssistant struct {
	client *genai.Client
}

// NewGeminiAssistant creates a Gemini-backed assistant authenticated with the
// given API key.
func NewGeminiAssistant(ctx context.Context, apiKey string) (*GeminiAssistant, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAssistant{client: client}, nil
}

// SuggestTags proposes marketplace hashtags for a listing photo. The photo is
// optional; with a nil photo the suggestion is based on text alone.
func (g *GeminiAssistant) SuggestTags(ctx context.Context, photo []byte, name, description string) ([]string, error) {
	prompt := fmt.Sprintf(tagSuggestionPrompt, name, description)

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	if len(photo) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: photo, MIMEType: "image/jpeg"},
		})
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	jsonStr, err := extractJSONObject(result.Text())
	if err != nil {
		return nil, err
	}

	var resp struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse tags json: %w (response: %s)", err, jsonStr)
	}

	// Drop anything the model returned without the # prefix
	tags := resp.Tags[:0]
	for _, tag := range resp.Tags {
		tag = strings.TrimSpace(tag)
		if strings.HasPrefix(tag, "#") {
			tags = append(tags, tag)
		}
	}

	logUsage(result, geminiModel, geminiInputPricePerMillion, geminiOutputPricePerMillion, "tag suggestion llm call")

	return tags, nil
}

// Reply answers a free-text user message in the marketplace assistant persona.
func (g *GeminiAssistant) Reply(ctx context.Context, userName, message string) (string, error) {
	prompt := fmt.Sprintf(assistantSystemPrompt, userName, message)

	result, err := g.client.Models.GenerateContent(ctx, geminiLiteModel, []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini assistant call failed: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	text := strings.TrimSpace(result.Text())

	// Strip markdown code blocks if present (LLM may occasionally add them)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	logUsage(result, geminiLiteModel, geminiLiteInputPricePerMillion, geminiLiteOutputPricePerMillion, "assistant llm call")

	return text, nil
}

func logUsage(result *genai.GenerateContentResponse, model string, inputPrice, outputPrice float64, msg string) {
	if result.UsageMetadata == nil {
		return
	}
	cost := calculateGeminiCost(
		int64(result.UsageMetadata.PromptTokenCount),
		int64(result.UsageMetadata.CandidatesTokenCount),
		inputPrice, outputPrice,
	)
	log.Info().
		Str("model", model).
		Int("inputTokens", int(result.UsageMetadata.PromptTokenCount)).
		Int("outputTokens", int(result.UsageMetadata.CandidatesTokenCount)).
		Float64("costUSD", cost).
		Msg(msg)
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting. Returns the extracted JSON string or an error.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}
