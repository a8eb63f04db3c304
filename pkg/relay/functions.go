package relay

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

// FunctionsClient invokes the server's bridge endpoints the way the web
// client invokes hosted functions. It satisfies both AIBridge and
// NurseBridge.
type FunctionsClient struct {
	BaseURL   string
	AuthToken string
	Client    *http.Client
}

func NewFunctionsClient(baseURL, authToken string) *FunctionsClient {
	return &FunctionsClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		AuthToken: authToken,
		Client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Respond asks the AI bridge to answer into the conversation. The bridge
// persists the ai message server-side; success here only means the reply is
// in the log.
func (f *FunctionsClient) Respond(ctx context.Context, conversationID uint, message string) error {
	return f.invoke(ctx, "/functions/ai-response", map[string]any{
		"message":         message,
		"conversation_id": conversationID,
	})
}

// Notify posts the outbound nurse notification for an already-persisted user
// message.
func (f *FunctionsClient) Notify(ctx context.Context, conversationID, userID uint, userName, message string) error {
	return f.invoke(ctx, "/functions/nurse-notify", map[string]any{
		"conversation_id": conversationID,
		"message":         message,
		"user_id":         userID,
		"user_name":       userName,
	})
}

func (f *FunctionsClient) invoke(ctx context.Context, path string, payload map[string]any) error {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.AuthToken)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return fmt.Errorf("invoke %s: %s", path, e.Error)
		}
		return fmt.Errorf("invoke %s: status %d", path, resp.StatusCode)
	}
	return nil
}
