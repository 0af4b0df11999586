// Package gateway speaks the remote SMS gateway's HTTP contract: one form
// POST per message and two GET status queries.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"uk.co.dudmesh.bulksms/internal/model"
)

const (
	sendPath        = "/p5/api/mt.json"
	statusPath      = "/p5/api/status.json"
	reservationPath = "/p5/api/checkreservation.json"

	maxBodySize = 10 << 20
)

type Config struct {
	Endpoint string
	Token    string
	ClientID string
	SMSCode  string
	Timeout  time.Duration
}

// Validate reports every missing setting at once.
func (c Config) Validate() error {
	missing := []string{}
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "ZETTAI_REACH_API_ENDPOINT")
	}
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "ZETTAI_REACH_TOKEN")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "ZETTAI_REACH_CLIENT_ID")
	}
	if strings.TrimSpace(c.SMSCode) == "" {
		missing = append(missing, "ZETTAI_REACH_SMS_CODE")
	}
	if len(missing) > 0 {
		return &model.ConfigurationError{Missing: missing}
	}
	return nil
}

type Client struct {
	config     Config
	httpClient *http.Client
	log        *log.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

func New(config Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.New("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// sendResponse keeps responseCode optional so a body without one is never
// mistaken for an accepted send.
type sendResponse struct {
	ResponseCode    *int   `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	PhoneNumber     string `json:"phoneNumber"`
	SmsMessage      string `json:"smsMessage"`
}

type SendRequest struct {
	PhoneNumber string
	Message     string
	ClientTag   string
	GroupTag    string
}

// Send posts one message. Any JSON object carrying a responseCode is returned
// as an ack, whatever the HTTP status. Transport problems, undecodable bodies
// and bodies without a responseCode are errors.
func (c *Client) Send(ctx context.Context, req SendRequest) (*model.GatewayAck, error) {
	form := url.Values{}
	form.Set("token", c.config.Token)
	form.Set("clientId", c.config.ClientID)
	form.Set("smsCode", c.config.SMSCode)
	form.Set("phoneNumber", req.PhoneNumber)
	form.Set("message", req.Message)
	if req.ClientTag != "" {
		form.Set("clientTag", req.ClientTag)
	}
	if req.GroupTag != "" {
		form.Set("groupTag", req.GroupTag)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+sendPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating send request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var wire sendResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decoding send response (HTTP %d): %w", status, err)
	}
	if wire.ResponseCode == nil {
		return nil, fmt.Errorf("send response (HTTP %d) has no responseCode", status)
	}
	ack := &model.GatewayAck{
		ResponseCode:    *wire.ResponseCode,
		ResponseMessage: wire.ResponseMessage,
		PhoneNumber:     wire.PhoneNumber,
		SmsMessage:      wire.SmsMessage,
	}
	c.log.Debugf("send %s: HTTP %d responseCode=%d", req.ClientTag, status, ack.ResponseCode)
	return ack, nil
}

type StatusResponse struct {
	ResponseCode *int                         `json:"responseCode"`
	Status       []model.DeliveryStatusRecord `json:"status"`
	Raw          json.RawMessage              `json:"-"`
}

// DeliveryStatus queries delivery rows. The gateway matches clientTag as a
// prefix, so a group tag returns every item tag derived from it.
func (c *Client) DeliveryStatus(ctx context.Context, clientTag, date string) (*StatusResponse, error) {
	q := c.authQuery()
	if clientTag != "" {
		q.Set("clientTag", clientTag)
	}
	if date != "" {
		q.Set("date", date)
	}
	raw, err := c.get(ctx, statusPath, q)
	if err != nil {
		return nil, err
	}
	resp := &StatusResponse{Raw: raw}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("decoding status response: %w", err)
	}
	return resp, nil
}

type ReservationResponse struct {
	ResponseCode *int            `json:"responseCode"`
	Raw          json.RawMessage `json:"-"`
}

// ReservationStatus queries the reservation endpoint. Its body is passed
// through untouched apart from reading responseCode.
func (c *Client) ReservationStatus(ctx context.Context, groupTag, scheduleDate string) (*ReservationResponse, error) {
	q := c.authQuery()
	if groupTag != "" {
		q.Set("groupTag", groupTag)
	}
	if scheduleDate != "" {
		q.Set("scheduleDate", scheduleDate)
	}
	raw, err := c.get(ctx, reservationPath, q)
	if err != nil {
		return nil, err
	}
	resp := &ReservationResponse{Raw: raw}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("decoding reservation response: %w", err)
	}
	return resp, nil
}

func (c *Client) authQuery() url.Values {
	q := url.Values{}
	q.Set("token", c.config.Token)
	q.Set("clientId", c.config.ClientID)
	return q
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	body, status, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s returned HTTP %d with a non-JSON body", path, status)
	}
	return body, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error would echo the query string, which carries the token
		return nil, 0, fmt.Errorf("calling %s: %w", req.URL.Path, unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading %s response: %w", req.URL.Path, err)
	}
	return body, resp.StatusCode, nil
}

func unwrapURLError(err error) error {
	if urlErr, ok := err.(*url.Error); ok {
		return urlErr.Err
	}
	return err
}
