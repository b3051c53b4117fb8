package alert

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
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// excerptLimit bounds how much journal text reaches the alert channel.
const excerptLimit = 200

// SlackNotifier posts urgent flags to a staff channel.
type SlackNotifier struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewSlackNotifier(token, channel string, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// NotifyUrgent posts an alert and returns the message timestamp.
func (n *SlackNotifier) NotifyUrgent(ctx context.Context, studentID, reason, entry string) (string, error) {
	text := formatAlert(studentID, reason, entry)

	body, err := json.Marshal(map[string]any{
		"channel": n.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "Review the student report and clear the flag once followed up.",
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	n.logger.Info("posted urgent alert to slack", "ts", slackResp.TS, "student_id", studentID)
	return slackResp.TS, nil
}

func formatAlert(studentID, reason, entry string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, ":rotating_light: *Urgent flag* for student `%s`\n", studentID)
	fmt.Fprintf(&sb, "*Reason:* %s\n", reason)
	if ex := excerpt(entry); ex != "" {
		fmt.Fprintf(&sb, "*Entry:* _%s_\n", ex)
	}
	return sb.String()
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= excerptLimit {
		return s
	}
	return string(r[:excerptLimit]) + "…"
}
