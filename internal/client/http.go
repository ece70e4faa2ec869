package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/formbuilder/internal/builder"
	"github.com/alfredjeanlab/formbuilder/internal/model"
	"github.com/alfredjeanlab/formbuilder/internal/presence"
)

// HTTPClient implements FormsClient against the formbuilder HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:3000").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// --- Forms ---

func (c *HTTPClient) ListForms(ctx context.Context) ([]model.FormDefinition, error) {
	var env model.Envelope[[]model.FormDefinition]
	if err := c.doJSON(ctx, http.MethodGet, "/api/forms/list", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *HTTPClient) GetForm(ctx context.Context, id string) (*model.FormDefinition, error) {
	q := url.Values{}
	q.Set("id", id)
	var env model.Envelope[model.FormDefinition]
	if err := c.doJSON(ctx, http.MethodGet, "/api/forms?"+q.Encode(), nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *HTTPClient) CreateForm(ctx context.Context, req *model.CreateFormRequest) (*model.FormDefinition, error) {
	var env model.Envelope[model.FormDefinition]
	if err := c.doJSON(ctx, http.MethodPost, "/api/forms", req, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// --- Source records ---

func (c *HTTPClient) ListSourceRecords(ctx context.Context, formID string) ([]model.SubmissionRecord, error) {
	q := url.Values{}
	q.Set("formId", formID)
	var env model.Envelope[[]model.SubmissionRecord]
	if err := c.doJSON(ctx, http.MethodGet, "/api/source-records?"+q.Encode(), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *HTTPClient) CreateSourceRecord(ctx context.Context, req *model.CreateSourceRecordRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/source-records", req, nil)
}

// --- Builder sessions ---

func sessionPath(id string) string {
	return "/api/builder/sessions/" + url.PathEscape(id)
}

func (c *HTTPClient) Palette(ctx context.Context) ([]builder.PaletteItem, error) {
	var items []builder.PaletteItem
	if err := c.doJSON(ctx, http.MethodGet, "/api/palette", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]presence.Entry, error) {
	var roster []presence.Entry
	if err := c.doJSON(ctx, http.MethodGet, "/api/builder/sessions", nil, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, name string) (*model.BuilderSession, error) {
	var sess model.BuilderSession
	if err := c.doJSON(ctx, http.MethodPost, "/api/builder/sessions", map[string]string{"name": name}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*model.BuilderSession, error) {
	var sess model.BuilderSession
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(id), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) RenameSession(ctx context.Context, id, name string) (*model.BuilderSession, error) {
	var sess model.BuilderSession
	if err := c.doJSON(ctx, http.MethodPatch, sessionPath(id), map[string]string{"name": name}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) Drop(ctx context.Context, id string, ev builder.DragEnd) (*DropResult, error) {
	var res DropResult
	if err := c.doJSON(ctx, http.MethodPost, sessionPath(id)+"/drop", ev, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) UpdateField(ctx context.Context, sessionID, fieldID string, req *UpdateFieldRequest) (*model.BuilderSession, error) {
	var sess model.BuilderSession
	path := sessionPath(sessionID) + "/fields/" + url.PathEscape(fieldID)
	if err := c.doJSON(ctx, http.MethodPatch, path, req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) DeleteField(ctx context.Context, sessionID, fieldID string) (*model.BuilderSession, error) {
	var sess model.BuilderSession
	path := sessionPath(sessionID) + "/fields/" + url.PathEscape(fieldID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) PublishSession(ctx context.Context, id string) (*model.FormDefinition, error) {
	var def model.FormDefinition
	if err := c.doJSON(ctx, http.MethodPost, sessionPath(id)+"/publish", nil, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, sessionPath(id), nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// APIMessage returns the message from the error body.
func (e *APIError) APIMessage() string { return e.Message }

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		// The proxy answers with "error" on form routes and "message" on
		// source-record routes.
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Error != "" {
				return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
			}
			if errResp.Message != "" {
				return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
