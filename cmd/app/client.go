package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httpadapter "github.com/viray-carlos-miguel/center-patient/internal/adapters/http"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

type apiClient struct {
	httpClient *http.Client
	server     string
	actor      string
}

func newAPIClient(server, actor string) *apiClient {
	return &apiClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		server:     strings.TrimRight(server, "/"),
		actor:      actor,
	}
}

func (c *apiClient) request(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actor != "" {
		req.Header.Set(httpadapter.ActorHeader, c.actor)
	}
	req.Header.Set("User-Agent", "center-patient-cli")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type healthReport struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

type serverStatus struct {
	Health healthReport `json:"health"`
	Stats  domain.Stats `json:"stats"`
}

func fetchStatus(ctx context.Context, client *apiClient) (serverStatus, error) {
	var out serverStatus
	if err := client.request(ctx, http.MethodGet, "/api/health", nil, &out.Health); err != nil {
		return out, err
	}
	if err := client.request(ctx, http.MethodGet, "/api/stats", nil, &out.Stats); err != nil {
		return out, err
	}
	return out, nil
}
