package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

const (
	colorOrange = 0xFFA500
	colorRed    = 0xFF4444
	colorGreen  = 0x2ECC71
)

type embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp"`
	Footer      *footer `json:"footer,omitempty"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type footer struct {
	Text string `json:"text"`
}

type payload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds"`
}

// Notifier posts failure alerts to a Discord webhook. A zero webhook URL
// disables it entirely.
type Notifier struct {
	webhookURL string
	pingUserID string

	mu        sync.Mutex
	cooldowns map[string]time.Time
}

func NewNotifier(webhookURL, pingUserID string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		pingUserID: pingUserID,
		cooldowns:  make(map[string]time.Time),
	}
}

func (n *Notifier) send(category string, cooldown time.Duration, ping bool, color int, title, description string, fields map[string]string) {
	if n == nil || n.webhookURL == "" {
		return
	}

	n.mu.Lock()
	now := time.Now()
	if cooldown > 0 {
		if last, ok := n.cooldowns[category]; ok && now.Sub(last) < cooldown {
			n.mu.Unlock()
			return
		}
	}
	n.cooldowns[category] = now
	n.mu.Unlock()

	var embedFields []field
	for k, v := range fields {
		if v == "" {
			continue
		}
		if len(v) > 1024 {
			v = v[:1021] + "..."
		}
		embedFields = append(embedFields, field{Name: k, Value: v, Inline: true})
	}

	p := payload{
		Embeds: []embed{{
			Title:       title,
			Description: truncate(description, 2048),
			Color:       color,
			Fields:      embedFields,
			Timestamp:   now.UTC().Format(time.RFC3339),
			Footer:      &footer{Text: "convertz"},
		}},
	}

	if ping && n.pingUserID != "" {
		p.Content = fmt.Sprintf("<@%s>", n.pingUserID)
	}

	body, _ := json.Marshal(p)
	go func() {
		resp, err := http.Post(n.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("[Discord] send failed: %v", err)
			return
		}
		resp.Body.Close()
	}()
}

func (n *Notifier) ServerStarted(version, port string) {
	n.send("server-start", 0, false, colorGreen, "Server Started", fmt.Sprintf("convertz %s listening on :%s", version, port), nil)
}

func (n *Notifier) ServerStopping() {
	n.send("server-stop", 0, false, colorOrange, "Server Stopping", "convertz is shutting down", nil)
}

func (n *Notifier) ConversionFailed(jobID, format string, err error) {
	n.send("conversion", 5*time.Second, true, colorRed, "Conversion Failed", err.Error(), map[string]string{
		"Job":    jobID,
		"Format": format,
		"Error":  truncate(err.Error(), 500),
	})
}

func (n *Notifier) ArchiveFailed(requestID string, err error) {
	n.send("archive", 5*time.Second, true, colorRed, "Archiving Failed", err.Error(), map[string]string{
		"Request": requestID,
		"Error":   truncate(err.Error(), 500),
	})
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
