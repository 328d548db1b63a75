package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var errNoFramework = errors.New("prediction framework not available")

// RequestCode is one step of a prediction service request.
type RequestCode int

const (
	RequestResetInput            RequestCode = 10
	RequestInsertString          RequestCode = 11
	RequestMoveCursor            RequestCode = 12
	RequestRemoveChars           RequestCode = 13
	RequestInsertSuggestion      RequestCode = 14
	RequestConfigureLearning     RequestCode = 15
	RequestSetCursor             RequestCode = 16
	RequestGetSuggestions        RequestCode = 17
	RequestInstallPackages       RequestCode = 18
	RequestUninstallPackages     RequestCode = 19
	RequestSetActiveDictionaries RequestCode = 20
)

// Prediction service response codes.
const (
	ResponseOK                         = 0
	ResponseErrorUnrecognisedMsgType   = 200
	ResponseErrorBufferOverflow        = 201
	ResponseErrorReset                 = 210
	ResponseErrorInsertString          = 211
	ResponseErrorMoveCursor            = 212
	ResponseErrorRemoveChars           = 213
	ResponseErrorInsertSuggestion      = 214
	ResponseErrorConfigureLearning     = 215
	ResponseErrorSetCursor             = 216
	ResponseErrorGetSuggestions        = 217
	ResponseErrorInstallPackages       = 218
	ResponseErrorUninstallPackages     = 219
	ResponseErrorSetActiveDictionaries = 220
)

// predictionFramework processes prediction requests. A request is a list of
// steps run in order, integer arguments and string data; the response is a
// status code and string data.
type predictionFramework interface {
	ProcessRequest(codes []RequestCode, args []int, data []string) (int, []string, error)
	Close() error
}

type predictionRequest struct {
	ID      string        `json:"id"`
	Request []RequestCode `json:"request"`
	Args    []int         `json:"args"`
	Data    []string      `json:"data"`
}

type predictionResponse struct {
	ID   string   `json:"id,omitempty"`
	Code int      `json:"code"`
	Data []string `json:"data"`
}

// PredictionClient talks to a prediction service over a websocket, one
// request and response at a time. A broken connection is redialled on the
// next request.
type PredictionClient struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	logger      *slog.Logger
	readTimeout time.Duration
	attempts    int
	retryDelay  time.Duration
}

// NewPredictionClient creates a client. The connection is made on the first
// request.
func NewPredictionClient(wsURL string, logger *slog.Logger, readTimeoutMS int) (*PredictionClient, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid websocket URL %q: scheme must be ws or wss", wsURL)
	}
	return &PredictionClient{
		url:         wsURL,
		logger:      logger,
		readTimeout: time.Duration(readTimeoutMS) * time.Millisecond,
		attempts:    3,
		retryDelay:  500 * time.Millisecond,
	}, nil
}

func (c *PredictionClient) connect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}
	conn, _, err := d.Dial(c.url, nil)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *PredictionClient) connectWithRetry() error {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		err := c.connect()
		if err == nil {
			c.logger.Info("connected to prediction service", "url", c.url)
			return nil
		}
		lastErr = err
		c.logger.Warn("prediction service connection failed; retrying...", "error", err, "attempt", attempt+1)
		time.Sleep(c.retryDelay)
	}
	return fmt.Errorf("failed to connect after %d attempts: %w", c.attempts, lastErr)
}

// ProcessRequest sends one request and waits for its response.
func (c *PredictionClient) ProcessRequest(codes []RequestCode, args []int, data []string) (int, []string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectWithRetry(); err != nil {
			return 0, nil, fmt.Errorf("%w: %w", errNoFramework, err)
		}
	}

	req := predictionRequest{
		ID:      uuid.NewString(),
		Request: codes,
		Args:    args,
		Data:    data,
	}
	if req.Args == nil {
		req.Args = []int{}
	}
	if req.Data == nil {
		req.Data = []string{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn = nil
		return 0, nil, err
	}

	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	defer func() {
		if c.conn != nil {
			c.conn.SetReadDeadline(time.Time{})
		}
	}()

	// Responses to earlier, timed out requests are skipped.
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.conn = nil
			return 0, nil, err
		}
		var resp predictionResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			return 0, nil, fmt.Errorf("unmarshal response: %w", err)
		}
		if resp.ID != "" && resp.ID != req.ID {
			continue
		}
		return resp.Code, resp.Data, nil
	}
}

func (c *PredictionClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}
