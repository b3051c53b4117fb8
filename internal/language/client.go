package language

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://language.googleapis.com/v1"

// Client talks to a Cloud Natural Language compatible REST endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type document struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type sentimentRequest struct {
	Document     document `json:"document"`
	EncodingType string   `json:"encodingType"`
}

type sentimentResponse struct {
	DocumentSentiment struct {
		Magnitude float64 `json:"magnitude"`
		Score     float64 `json:"score"`
	} `json:"documentSentiment"`
}

type classifyRequest struct {
	Document document `json:"document"`
}

type classifyResponse struct {
	Categories []struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"categories"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// AnalyzeSentiment returns the document-level sentiment of text.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error) {
	var resp sentimentResponse
	err := c.post(ctx, "documents:analyzeSentiment", sentimentRequest{
		Document:     document{Type: "PLAIN_TEXT", Content: text},
		EncodingType: "UTF8",
	}, &resp)
	if err != nil {
		return Sentiment{}, err
	}
	return Sentiment{
		Score:     resp.DocumentSentiment.Score,
		Magnitude: resp.DocumentSentiment.Magnitude,
	}, nil
}

// ClassifyText returns the content categories the service assigns to text.
// The service rejects very short documents; callers treat that as no topics.
func (c *Client) ClassifyText(ctx context.Context, text string) ([]Topic, error) {
	var resp classifyResponse
	err := c.post(ctx, "documents:classifyText", classifyRequest{
		Document: document{Type: "PLAIN_TEXT", Content: text},
	}, &resp)
	if err != nil {
		return nil, err
	}
	topics := make([]Topic, 0, len(resp.Categories))
	for _, cat := range resp.Categories {
		topics = append(topics, Topic{Name: cat.Name, Confidence: cat.Confidence})
	}
	return topics, nil
}

func (c *Client) post(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%s error %d: %s: %s", method, resp.StatusCode, errResp.Error.Status, errResp.Error.Message)
		}
		return fmt.Errorf("%s error %d: %s", method, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", method, err)
	}
	return nil
}
