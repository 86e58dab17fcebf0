package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Slack posts messages to a channel via chat.postMessage.
type Slack struct {
	Token   string
	Channel string
	BaseURL string
	Client  *http.Client
}

func NewSlack(token, channel string) *Slack {
	return &Slack{
		Token:   token,
		Channel: channel,
		BaseURL: "https://slack.com/api",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SendText posts one message, retrying up to 3 times on transport or
// non-2xx failures.
func (s *Slack) SendText(text string) error {
	if s.Token == "" || s.Channel == "" {
		return fmt.Errorf("slack notifier not configured")
	}
	payload := map[string]any{
		"channel": s.Channel,
		"text":    text,
	}
	body, _ := json.Marshal(payload)
	url := s.BaseURL + "/chat.postMessage"

	var lastErr error
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		req.Header.Set("Authorization", "Bearer "+s.Token)
		resp, err := s.Client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("slack status=%d", resp.StatusCode)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}
