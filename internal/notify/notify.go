package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TaskPayload is the structured payload handed to the task list
// collaborator by create_task actions.
type TaskPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	BoardID     string `json:"board_id"`
	ItemID      string `json:"item_id"`
}

// NotificationPayload is the structured payload handed to the notification
// collaborator by send_notification actions.
type NotificationPayload struct {
	Channel   string `json:"channel,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Message   string `json:"message"`
	BoardID   string `json:"board_id"`
	ItemID    string `json:"item_id"`
}

// TaskCreator accepts a task payload and returns success or an error. The
// automation engine treats any error as an action failure.
type TaskCreator interface {
	CreateTask(payload TaskPayload) error
}

// NotificationSender accepts a notification payload and returns success or
// an error.
type NotificationSender interface {
	SendNotification(payload NotificationPayload) error
}

// WebhookClient posts payloads to an external HTTP collaborator. It
// implements both TaskCreator and NotificationSender; the server wires one
// instance per configured URL.
type WebhookClient struct {
	URL    string
	Client *http.Client
}

// NewWebhookClient creates a client with a bounded request timeout.
func NewWebhookClient(url string) *WebhookClient {
	return &WebhookClient{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// CreateTask posts the task payload to the collaborator.
func (w *WebhookClient) CreateTask(payload TaskPayload) error {
	return w.post(payload)
}

// SendNotification posts the notification payload to the collaborator.
func (w *WebhookClient) SendNotification(payload NotificationPayload) error {
	return w.post(payload)
}

func (w *WebhookClient) post(payload interface{}) error {
	if w.URL == "" {
		return fmt.Errorf("no collaborator URL configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := w.Client.Post(w.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collaborator returned status %d", resp.StatusCode)
	}
	return nil
}
