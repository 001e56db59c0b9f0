package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hackgods/clinic-appointment-portal/internal/metrics"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

var completionTracer = otel.Tracer("clinic.internal.chat.completion")

type CompletionRequest struct {
	Message      string
	History      []HistoryEntry
	Attachments  []Attachment
	K            int
	Mode         string
	UseFunctions bool
}

type CompletionResponse struct {
	Message string               `json:"message"`
	Status  string               `json:"status"`
	Report  *store.ReportPayload `json:"report"`
}

// Completer produces the assistant's next turn.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionClient posts multipart form requests to the completion endpoint.
type CompletionClient struct {
	url        string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

func NewCompletionClient(url string, timeout time.Duration, m *metrics.Metrics) *CompletionClient {
	return &CompletionClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

var _ Completer = (*CompletionClient)(nil)

func (c *CompletionClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, span := completionTracer.Start(ctx, "chat.completion.ask", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int("clinic.chat_history", len(req.History)),
		attribute.Int("clinic.chat_attachments", len(req.Attachments)),
	)

	start := time.Now()
	resp, err := c.post(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if resp.Status == StatusComplete {
		status = StatusComplete
	}
	c.metrics.ObserveCompletion(status, time.Since(start).Seconds())
	return resp, err
}

func (c *CompletionClient) post(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("completion endpoint returned %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out CompletionResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	return &out, nil
}

func encodeForm(req CompletionRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hist, err := json.Marshal(req.History)
	if err != nil {
		return nil, "", fmt.Errorf("encode history: %w", err)
	}
	fields := [][2]string{
		{"message", req.Message},
		{"history", string(hist)},
		{"k", strconv.Itoa(req.K)},
		{"mode", req.Mode},
		{"use_functions", strconv.FormatBool(req.UseFunctions)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}

	for _, a := range req.Attachments {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, a.Name))
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(a.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
