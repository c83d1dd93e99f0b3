package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"fintrack/internal/logging"
	"fintrack/internal/models"
)

// DefaultGeminiModel is the model used when the configuration does not name
// one.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClassifier asks Google's Gemini API for a category suggestion.
type GeminiClassifier struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  logging.Logger
}

// NewGeminiClassifier creates a classifier backed by the Gemini API.
func NewGeminiClassifier(ctx context.Context, apiKey, modelName string, timeout time.Duration, logger logging.Logger) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClassifier{
		client:  client,
		model:   client.GenerativeModel(modelName),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Close releases the underlying API client.
func (g *GeminiClassifier) Close() error {
	return g.client.Close()
}

// Classify sends one transaction to Gemini and parses the suggested category
// and confidence out of the JSON response. Every failure is returned as a
// *ClassifierError so callers can degrade instead of aborting.
func (g *GeminiClassifier) Classify(ctx context.Context, label string, amount decimal.Decimal, date time.Time, categories []string) (string, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`Categorize the following bank transaction:
Label: %s
Amount: %s
Date: %s

Assign this transaction to exactly one of the following categories:
%s

Respond with a single JSON object and nothing else:
{"category": "<selected category name>", "confidence": <number between 0 and 1>}`,
		label,
		amount.StringFixed(models.CurrencyPrecision),
		date.Format(models.DateLayout),
		strings.Join(categories, ", "))

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", 0, &ClassifierError{Err: fmt.Errorf("gemini API: %w", err)}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", 0, &ClassifierError{Err: fmt.Errorf("empty response from gemini API")}
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	category, confidence, err := parseClassification(responseText)
	if err != nil {
		return "", 0, &ClassifierError{Err: err}
	}

	g.logger.WithFields(
		logging.Field{Key: logging.FieldLabel, Value: label},
		logging.Field{Key: logging.FieldCategory, Value: category},
		logging.Field{Key: "confidence", Value: confidence},
	).Debug("Gemini classified transaction")

	return category, confidence, nil
}

// parseClassification decodes the {"category","confidence"} object the model
// was asked for. Models often wrap JSON in a markdown code fence, so fences
// are stripped before decoding.
func parseClassification(response string) (string, float64, error) {
	text := strings.TrimSpace(response)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var parsed struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return "", 0, fmt.Errorf("decoding classification response: %w", err)
	}
	if parsed.Category == "" {
		return "", 0, fmt.Errorf("classification response carries no category")
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return "", 0, fmt.Errorf("classification confidence %v out of range", parsed.Confidence)
	}
	return parsed.Category, parsed.Confidence, nil
}
