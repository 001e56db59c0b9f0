// Package logrelay forwards client-side log entries to a central sink and
// implements that sink.
package logrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
)

// Entry is the body accepted by the sink.
type Entry struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Client posts entries without making the caller wait. A nil *Client drops
// everything.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
	wg         sync.WaitGroup
}

func NewClient(url string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

func (c *Client) Error(message string, err error, context string) {
	e := Entry{Level: LevelError, Message: message, Context: context}
	if err != nil {
		e.Stack = fmt.Sprintf("%+v", err)
	}
	c.send(e)
}

func (c *Client) Warn(message, context string) {
	c.send(Entry{Level: LevelWarn, Message: message, Context: context})
}

func (c *Client) Info(message, context string) {
	c.send(Entry{Level: LevelInfo, Message: message, Context: context})
}

// Flush waits for entries already handed to the client.
func (c *Client) Flush() {
	if c == nil {
		return
	}
	c.wg.Wait()
}

func (c *Client) send(e Entry) {
	if c == nil || c.url == "" {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.post(e); err != nil {
			c.logger.Error("failed to send log to server", "error", err, "message", e.Message)
		}
	}()
}

func (c *Client) post(e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("log sink returned %d", res.StatusCode)
	}
	return nil
}
