package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"flowpass/internal/config"
	"flowpass/internal/logger"
)

// Twilio sends SMS through the Twilio REST API. With no account SID
// configured it runs as a stub that only logs the message, which keeps
// development environments working without credentials.
type Twilio struct {
	sid        string
	token      string
	from       string
	messagingS string
	apiBase    string
	client     *http.Client
	logger     *logger.Logger
}

const twilioAPIBase = "https://api.twilio.com"

func NewTwilio(cfg config.TwilioConfig, log *logger.Logger) *Twilio {
	return &Twilio{
		sid:        cfg.AccountSID,
		token:      cfg.AuthToken,
		from:       cfg.From,
		messagingS: cfg.MessagingServiceSID,
		apiBase:    twilioAPIBase,
		client:     &http.Client{},
		logger:     log,
	}
}

func (t *Twilio) Send(to, body string) error {
	if t.sid == "" {
		t.logger.Info("SMS", fmt.Sprintf("stub mode, not sending to %s: %s", to, body))
		return nil
	}

	msgData := url.Values{}
	msgData.Set("To", to)
	msgData.Set("Body", body)
	if t.messagingS != "" {
		msgData.Set("MessagingServiceSid", t.messagingS)
	} else {
		msgData.Set("From", t.from)
	}

	apiURL := t.apiBase + "/2010-04-01/Accounts/" + t.sid + "/Messages.json"

	req, err := http.NewRequest(http.MethodPost, apiURL, strings.NewReader(msgData.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.sid, t.token)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned %s", resp.Status)
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return err
	}
	t.logger.Info("SMS", fmt.Sprintf("notification sent to %s, sid: %v", to, data["sid"]))
	return nil
}
