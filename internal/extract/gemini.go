package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/mailcal/internal/model"
)

// defaultGeminiEndpoint はGemini generateContent APIのベースURL。
const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiExtractor はGoogleの生成AI APIでイベント抽出を行う。
// レスポンステキストがJSONとして解析できることを期待する。
type GeminiExtractor struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewGeminiExtractor はGeminiExtractorを生成する。
func NewGeminiExtractor(httpClient *http.Client, logger *slog.Logger, apiKey, geminiModel string) *GeminiExtractor {
	return &GeminiExtractor{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		model:      geminiModel,
		endpoint:   defaultGeminiEndpoint,
	}
}

// geminiRequest はgenerateContentのリクエストボディ。
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// geminiResponse はgenerateContentのレスポンスのうち使用する部分。
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract はメッセージから生成AIでイベント情報を抽出する。
// モデルの応答からコードフェンスを除去し、JSONとして解析する。
func (g *GeminiExtractor) Extract(ctx context.Context, text string) (*model.ExtractedEvent, error) {
	prompt := fmt.Sprintf(
		`Extract event details from this message and return them in JSON format with fields: `+
			`title, description, startTime (ISO format, e.g., "2025-02-22T16:00:00"), endTime (ISO format), `+
			`location, priority (low/medium/high), type (meeting/task/reminder/other), timeZone (e.g., "Asia/Kolkata"). `+
			`If a field is missing, use reasonable defaults (use "UTC" for timeZone if not specified):`+"\n\n%s", text)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     1,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 8192,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("gemini request failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("gemini returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to parse gemini response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	event, err := parseExtractedJSON(geminiResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// parseExtractedJSON はモデル応答のテキストをExtractedEventに解析する。
// ```json フェンスで囲まれている場合は除去する。欠落フィールドには既定値を補う。
func parseExtractedJSON(text string) (*model.ExtractedEvent, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var event model.ExtractedEvent
	if err := json.Unmarshal([]byte(cleaned), &event); err != nil {
		return nil, fmt.Errorf("failed to parse extracted event JSON: %w", err)
	}

	now := time.Now().UTC()
	if event.Title == "" {
		event.Title = "Untitled Event"
	}
	if event.StartTime == "" {
		event.StartTime = now.Format(time.RFC3339)
	}
	if event.EndTime == "" {
		event.EndTime = now.Add(time.Hour).Format(time.RFC3339)
	}
	if event.Priority == "" {
		event.Priority = "medium"
	}
	if event.Type == "" {
		event.Type = "meeting"
	}
	if event.TimeZone == "" {
		event.TimeZone = "UTC"
	}

	return &event, nil
}

// compile-time interface check
var _ Extractor = (*GeminiExtractor)(nil)
