package erpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/catalogbridge/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the upstream API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// serviceSqlData is the stored-query execution service on the upstream system
const serviceSqlData = "SqlData"

// Client executes stored queries against the upstream business-data API.
// It implements integration.RowSource.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// sqlDataRequest is the wire request for one stored-query page
type sqlDataRequest struct {
	Service  string            `json:"service"`
	AppID    string            `json:"appId"`
	Token    string            `json:"clientID"`
	SqlName  string            `json:"SqlName"`
	Page     int               `json:"page,omitempty"`
	PageSize int               `json:"pagesize,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

// sqlDataResponse is the wire response envelope
type sqlDataResponse struct {
	Success    bool                 `json:"success"`
	TotalCount *int                 `json:"totalcount,omitempty"`
	Rows       []integration.RawRow `json:"rows"`
	Error      string               `json:"error,omitempty"`
	ErrorCode  int                  `json:"errorcode,omitempty"`
}

// authErrorCodes are upstream error codes that indicate an expired or
// invalid access token rather than a transient failure.
var authErrorCodes = map[int]bool{
	-1:  true,
	-2:  true,
	-7:  true,
	-11: true,
}

// NewClient creates a new client for the upstream business-data API
func NewClient(config *ClientConfig, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// NewClientWithHTTPClient creates a client with a caller-supplied HTTP
// client. Useful for testing.
func NewClientWithHTTPClient(config *ClientConfig, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	c, err := NewClient(config, logger)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

// FetchPage executes one page of a stored query
func (c *Client) FetchPage(ctx context.Context, req integration.QueryRequest) (*integration.QueryPage, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("%w: stored query name is empty", integration.ErrSourceNotConfigured)
	}

	wireReq := sqlDataRequest{
		Service:  serviceSqlData,
		AppID:    c.config.AppID,
		Token:    c.config.Token,
		SqlName:  req.Query,
		Page:     req.Page,
		PageSize: req.PageSize,
		Params:   req.Params,
	}

	body, err := c.doRequest(ctx, &wireReq)
	if err != nil {
		return nil, err
	}

	var resp sqlDataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrSourceInvalidResponse, err)
	}

	if !resp.Success {
		if authErrorCodes[resp.ErrorCode] {
			return nil, fmt.Errorf("%w: %s", integration.ErrSourceAuthFailed, resp.Error)
		}
		return nil, fmt.Errorf("%w: code %d: %s", integration.ErrSourceRequestFailed, resp.ErrorCode, resp.Error)
	}

	total := -1
	if resp.TotalCount != nil {
		total = *resp.TotalCount
	}

	c.logger.Debug("fetched stored-query page",
		zap.String("query", req.Query),
		zap.Int("page", req.Page),
		zap.Int("rows", len(resp.Rows)),
		zap.Int("total", total))

	return &integration.QueryPage{
		Rows:  resp.Rows,
		Total: total,
	}, nil
}

// doRequest performs the HTTP exchange and returns the raw response body
func (c *Client) doRequest(ctx context.Context, wireReq *sqlDataRequest) ([]byte, error) {
	payload, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("erpapi: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("erpapi: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("erpapi: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrSourceAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrSourceUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrSourceRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// Ensure Client implements the RowSource interface
var _ integration.RowSource = (*Client)(nil)
