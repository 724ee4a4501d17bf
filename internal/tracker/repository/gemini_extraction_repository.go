package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/config"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiExtractionRepository extracts (recommender, stock) pairs from raw
// text using the Google Gemini API.
type geminiExtractionRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiExtractionRepository creates a new instance of geminiExtractionRepository.
func NewGeminiExtractionRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (ExtractionRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)

	return &geminiExtractionRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// ExtractRecommendations parses the raw weekly text into expanded
// (recommender, stock) pairs, one pair per mentioned stock.
func (r *geminiExtractionRepository) ExtractRecommendations(ctx context.Context, rawText string) ([]dto.RecommendationPair, error) {
	prompt := BuildExtractionPrompt(rawText)

	geminiResp, err := r.executeGeminiRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, err := r.parseExtractionResponse(geminiResp)
	if err != nil {
		return nil, err
	}

	var pairs []dto.RecommendationPair
	for _, item := range result.Items {
		name := strings.TrimSpace(item.Name)
		original := strings.TrimSpace(item.Original)
		if name == "" {
			continue
		}
		for _, stock := range strings.Fields(item.Stocks) {
			pairs = append(pairs, dto.RecommendationPair{
				Recommender: name,
				StockName:   stock,
				Original:    original,
			})
		}
	}

	r.logger.Info("Extraction completed",
		logger.IntField("items", len(result.Items)),
		logger.IntField("pairs", len(pairs)))
	return pairs, nil
}

func (r *geminiExtractionRepository) executeGeminiRequest(ctx context.Context, prompt string) (*dto.GeminiAPIResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count tokens: %v", entity.ErrTransient, err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: prompt}}}},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("Failed to marshal payload", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s", r.cfg.Gemini.BaseURL, r.cfg.Gemini.Model, r.cfg.Gemini.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("Failed to send request to Gemini API", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: failed to send request to Gemini API: %v", entity.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Received non-OK response from Gemini API", logger.IntField("status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: Gemini API returned %d: %s", entity.ErrTransient, resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("received non-OK response from Gemini API: %d - %s", resp.StatusCode, string(body))
	}

	var geminiResp dto.GeminiAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &geminiResp, nil
}

func (r *geminiExtractionRepository) parseExtractionResponse(resp *dto.GeminiAPIResponse) (*dto.ExtractionResult, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}

	jsonString := resp.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	var result dto.ExtractionResult
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		r.logger.Error("Failed to unmarshal extraction result", logger.ErrorField(err), logger.StringField("response", jsonString))
		return nil, fmt.Errorf("failed to unmarshal extraction result from Gemini response: %w", err)
	}
	return &result, nil
}
