package importer

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

// HTTPMaterializer materializes entities against a remote consuming
// application over JSON HTTP. Patients go to POST {base}/patients and
// visits to POST {base}/visits; both endpoints are expected to upsert and
// return the resulting record.
type HTTPMaterializer struct {
	baseURL string
	client  *http.Client
	token   string
}

// HTTPOption configures an HTTPMaterializer.
type HTTPOption func(*HTTPMaterializer)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(m *HTTPMaterializer) { m.client = c }
}

// WithBearerToken sets a bearer token sent on every request.
func WithBearerToken(token string) HTTPOption {
	return func(m *HTTPMaterializer) { m.token = token }
}

// NewHTTPMaterializer creates an HTTPMaterializer for the given base URL.
func NewHTTPMaterializer(baseURL string, opts ...HTTPOption) *HTTPMaterializer {
	m := &HTTPMaterializer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *HTTPMaterializer) UpsertPatient(ctx context.Context, p PatientUpsert) (PatientRecord, error) {
	var rec PatientRecord
	if err := m.post(ctx, "/patients", p, &rec); err != nil {
		return PatientRecord{}, fmt.Errorf("importer: upsert patient %s: %w", p.ExternalID, err)
	}
	return rec, nil
}

func (m *HTTPMaterializer) UpsertVisit(ctx context.Context, v VisitUpsert) (VisitRecord, error) {
	var rec VisitRecord
	if err := m.post(ctx, "/visits", v, &rec); err != nil {
		return VisitRecord{}, fmt.Errorf("importer: upsert visit %s: %w", v.ExternalID, err)
	}
	return rec, nil
}

func (m *HTTPMaterializer) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
