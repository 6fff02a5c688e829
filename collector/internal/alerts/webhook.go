package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sensorpulse/sensorpulse/collector/internal/config"
)

const deliveryTimeout = 10 * time.Second

type slackPayload struct {
	Text string `json:"text"`
}

// teamsCard is the legacy Office 365 connector MessageCard.
type teamsCard struct {
	Type       string `json:"@type"`
	Context    string `json:"@context"`
	ThemeColor string `json:"themeColor"`
	Summary    string `json:"summary"`
	Title      string `json:"title"`
	Text       string `json:"text"`
}

type httpPayload struct {
	Alert *Alert `json:"alert"`
}

// deliver posts a to every webhook target with a resolvable URL.
// Failures are logged and otherwise ignored.
func (e *Engine) deliver(webhooks []config.WebhookConfig, a *Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		body, err := payload(wh.Type, a)
		if err == nil {
			err = e.post(ctx, url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type, "rule", a.Rule, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered",
			"type", wh.Type, "rule", a.Rule, "state", a.State)
	}
}

// payload renders a in the body format expected by the given webhook type.
func payload(kind string, a *Alert) ([]byte, error) {
	var v interface{}
	switch kind {
	case "slack":
		v = slackPayload{Text: fmt.Sprintf("*%s* %s: %s", label(a), a.Rule, a.Message)}
	case "teams":
		v = teamsCard{
			Type:       "MessageCard",
			Context:    "http://schema.org/extensions",
			ThemeColor: themeColor(a),
			Summary:    a.Rule,
			Title:      fmt.Sprintf("SensorPulse %s: %s", label(a), a.Rule),
			Text:       a.Message,
		}
	case "http":
		v = httpPayload{Alert: a}
	default:
		return nil, fmt.Errorf("unknown webhook type %q", kind)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return b, nil
}

func (e *Engine) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook answered HTTP %d", resp.StatusCode)
	}
	return nil
}

// label is the bracketed prefix for chat messages, e.g. "[CRITICAL]" or "[RESOLVED]".
func label(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	switch a.Severity {
	case SeverityCritical:
		return "[CRITICAL]"
	case SeverityWarning:
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func themeColor(a *Alert) string {
	if a.State == StateResolved {
		return "2EB67D"
	}
	switch a.Severity {
	case SeverityCritical:
		return "D93025"
	case SeverityWarning:
		return "F9AB00"
	default:
		return "1A73E8"
	}
}
