package estimate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rcliao/experience-rank/internal/httpjson"
)

const absolutePrompt = `You are an AI assistant specialized in estimating the overall difficulty of various life experiences. You will receive a description of an experience and should respond with a single difficulty score.

Provide a score from 0 to 100, where 0 is extremely easy/common and 100 is extremely difficult/rare.

Consider factors like physical difficulty, mental effort, time investment, technical complexity, social challenge, financial burden, risk level, persistence required, creativity needed, and rarity.

Your response should be a single number between 0 and 100, with up to two decimal places. Do not include any additional text or explanation.`

const detailedPrompt = `You are an AI assistant specialized in estimating the difficulty of various life experiences. Rate the described experience on these 10 metrics:

1. Physical Difficulty
2. Mental Effort
3. Time Investment
4. Technical Complexity
5. Social Challenge
6. Financial Burden
7. Risk Level
8. Persistence Required
9. Creativity Needed
10. Rarity

Give each metric a score from 0 to 100, where 0 is extremely easy/common and 100 is extremely difficult/rare.

Respond with a JSON array of 10 numbers in the order listed above. Your response should only contain this JSON array, no additional text.`

const relativePrompt = `Compare the difficulty of two experiences. The first experience has a known difficulty score of %.2f out of 100.

Experience 1 (Score: %.2f): %s
Experience 2 (Unknown Score): %s

Estimate the difficulty score for Experience 2 relative to Experience 1. Your response should be a single number between 0 and 100, with up to two decimal places. Do not include any additional text or explanation.`

// OpenAIEstimator uses any OpenAI-compatible chat completions API.
type OpenAIEstimator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIEstimator creates an estimator using an OpenAI-compatible API.
func NewOpenAIEstimator(baseURL, apiKey, model string, timeout time.Duration) *OpenAIEstimator {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-3.5-turbo-0125"
	}
	return &OpenAIEstimator{
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: 0.7,
		client:      httpjson.NewClient(timeout),
	}
}

func (e *OpenAIEstimator) EstimateAbsolute(ctx context.Context, text string) (float64, error) {
	out, err := e.complete(ctx, absolutePrompt, "Estimate the overall difficulty of: "+text, 10)
	if err != nil {
		return 0, err
	}
	return ParseScore(out)
}

func (e *OpenAIEstimator) EstimateRelative(ctx context.Context, text, anchorText string, anchorScore float64) (float64, error) {
	system := fmt.Sprintf(relativePrompt, anchorScore, anchorScore, anchorText, text)
	out, err := e.complete(ctx, system, "What is the estimated difficulty score for Experience 2?", 10)
	if err != nil {
		return 0, err
	}
	return ParseScore(out)
}

func (e *OpenAIEstimator) EstimateDetailed(ctx context.Context, text string) ([]float64, error) {
	out, err := e.complete(ctx, detailedPrompt, "Estimate the difficulty of: "+text, 100)
	if err != nil {
		return nil, err
	}
	return ParseDetailed(out)
}

func (e *OpenAIEstimator) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: e.temperature,
	}
	var result chatResponse
	if err := httpjson.Post(ctx, e.client, e.baseURL+"/chat/completions", e.apiKey, req, &result); err != nil {
		if errors.Is(err, httpjson.ErrDecode) {
			return "", fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformed)
	}
	return result.Choices[0].Message.Content, nil
}
