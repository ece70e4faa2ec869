// Package formapi is an HTTP client for the external form service that owns
// form definitions and their submissions ("source records").
package formapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// APIError is returned for non-2xx responses from the form service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("form service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("form service returned %d: %s", e.StatusCode, e.Message)
}

// APIMessage returns the message the service put in the error body.
func (e *APIError) APIMessage() string { return e.Message }

// Response is a raw upstream response, kept verbatim for pass-through.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Message extracts "message" from a JSON body. It returns "" when the body
// is not a JSON object or has no string message; other keys such as
// "error" are ignored so callers fall back to their own text.
func (r *Response) Message() string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(r.Body, &body) != nil {
		return ""
	}
	return body.Message
}

// Client talks to the form service at a fixed base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL (e.g. "https://forms.internal/api").
// A zero timeout means no client-side timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Forward sends body (may be nil) to path and returns the upstream response
// whatever its status. Only transport failures are returned as errors.
func (c *Client) Forward(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// --- Paths ---

// FormsPath is the collection path for forms.
func FormsPath() string { return "/form" }

// FormPath is the path of a single form.
func FormPath(id string) string { return "/form/" + url.PathEscape(id) }

// SourceRecordsPath is the submission collection path, optionally filtered
// by form.
func SourceRecordsPath(formID string) string {
	if formID == "" {
		return "/source-record"
	}
	q := url.Values{}
	q.Set("formId", formID)
	return "/source-record?" + q.Encode()
}

// --- Forms ---

// ListForms returns every form definition.
func (c *Client) ListForms(ctx context.Context) ([]model.FormDefinition, error) {
	var env model.Envelope[[]model.FormDefinition]
	if err := c.doJSON(ctx, http.MethodGet, FormsPath(), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetForm returns one form definition with its fields in service order.
func (c *Client) GetForm(ctx context.Context, id string) (*model.FormDefinition, error) {
	var env model.Envelope[model.FormDefinition]
	if err := c.doJSON(ctx, http.MethodGet, FormPath(id), nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// CreateForm creates a form definition.
func (c *Client) CreateForm(ctx context.Context, req *model.CreateFormRequest) (*model.FormDefinition, error) {
	var env model.Envelope[model.FormDefinition]
	if err := c.doJSON(ctx, http.MethodPost, FormsPath(), req, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// --- Source records ---

// ListSourceRecords returns the submissions of a form.
func (c *Client) ListSourceRecords(ctx context.Context, formID string) ([]model.SubmissionRecord, error) {
	var env model.Envelope[[]model.SubmissionRecord]
	if err := c.doJSON(ctx, http.MethodGet, SourceRecordsPath(formID), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateSourceRecord submits one form response.
func (c *Client) CreateSourceRecord(ctx context.Context, req *model.CreateSourceRecordRequest) error {
	return c.doJSON(ctx, http.MethodPost, SourceRecordsPath(""), req, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	resp, err := c.Forward(ctx, method, path, data)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Message()}
	}

	if result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
