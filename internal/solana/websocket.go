package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSClient subscribes to signature notifications over the RPC WebSocket
// endpoint so submitted transactions can be confirmed without polling.
type WSClient struct {
	url    string
	logger *logrus.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	nextID    int
	requests  map[int]chan wsReply          // request id -> subscribe reply
	waiters   map[int]chan signatureOutcome // subscription id -> outcome
	unclaimed map[int]signatureOutcome      // outcomes that beat their waiter
	closed    bool
}

// WSMessage is the JSON-RPC frame used on the WebSocket connection
type WSMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int            `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type wsReply struct {
	result json.RawMessage
	err    *RPCError
}

type signatureOutcome struct {
	txErr interface{}
}

// signatureNotification mirrors the params of a signatureNotification frame
type signatureNotification struct {
	Subscription int `json:"subscription"`
	Result       struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Err interface{} `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

// NewWSClient creates a new WebSocket client
func NewWSClient(url string, logger *logrus.Logger) *WSClient {
	return &WSClient{
		url:       url,
		logger:    logger,
		requests:  make(map[int]chan wsReply),
		waiters:   make(map[int]chan signatureOutcome),
		unclaimed: make(map[int]signatureOutcome),
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (ws *WSClient) Connect() error {
	ws.logger.WithField("url", ws.url).Debug("Connecting to Solana WebSocket")

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(ws.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", ws.url, err)
	}

	ws.mu.Lock()
	ws.conn = conn
	ws.closed = false
	ws.mu.Unlock()

	go ws.readLoop(conn)
	return nil
}

// Close shuts the connection down; pending waiters receive an error
func (ws *WSClient) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.conn == nil || ws.closed {
		return nil
	}
	ws.closed = true
	return ws.conn.Close()
}

func (ws *WSClient) readLoop(conn *websocket.Conn) {
	for {
		var message WSMessage
		if err := conn.ReadJSON(&message); err != nil {
			ws.mu.Lock()
			closed := ws.closed
			for id, ch := range ws.requests {
				close(ch)
				delete(ws.requests, id)
			}
			for id, ch := range ws.waiters {
				close(ch)
				delete(ws.waiters, id)
			}
			ws.mu.Unlock()
			if !closed {
				ws.logger.WithError(err).Warn("WebSocket read loop terminated")
			}
			return
		}
		ws.dispatch(message)
	}
}

func (ws *WSClient) dispatch(message WSMessage) {
	if message.ID != nil {
		ws.mu.Lock()
		ch, ok := ws.requests[*message.ID]
		if ok {
			delete(ws.requests, *message.ID)
		}
		ws.mu.Unlock()
		if ok {
			ch <- wsReply{result: message.Result, err: message.Error}
		}
		return
	}

	if message.Method != "signatureNotification" {
		return
	}

	var notification signatureNotification
	if err := json.Unmarshal(message.Params, &notification); err != nil {
		ws.logger.WithError(err).Debug("Malformed signature notification")
		return
	}

	outcome := signatureOutcome{txErr: notification.Result.Value.Err}

	ws.mu.Lock()
	ch, ok := ws.waiters[notification.Subscription]
	if ok {
		delete(ws.waiters, notification.Subscription)
	} else {
		// notification arrived before the subscriber registered
		ws.unclaimed[notification.Subscription] = outcome
	}
	ws.mu.Unlock()

	if ok {
		ch <- outcome
	}
}

// WaitForSignature subscribes to the signature and blocks until the
// transaction is confirmed, fails on chain, or the context expires.
// The RPC node tears the subscription down after it fires once.
func (ws *WSClient) WaitForSignature(ctx context.Context, signature string) error {
	ws.mu.Lock()
	if ws.conn == nil || ws.closed {
		ws.mu.Unlock()
		return fmt.Errorf("websocket not connected")
	}
	ws.nextID++
	requestID := ws.nextID
	replyCh := make(chan wsReply, 1)
	ws.requests[requestID] = replyCh

	message := WSMessage{
		JSONRPC: "2.0",
		ID:      &requestID,
		Method:  "signatureSubscribe",
	}
	params, _ := json.Marshal([]interface{}{
		signature,
		map[string]interface{}{"commitment": "confirmed"},
	})
	message.Params = params

	err := ws.conn.WriteJSON(message)
	ws.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send signatureSubscribe: %w", err)
	}

	var subscriptionID int
	select {
	case reply, ok := <-replyCh:
		if !ok {
			return fmt.Errorf("websocket closed while subscribing to %s", signature)
		}
		if reply.err != nil {
			return fmt.Errorf("signatureSubscribe rejected: %w", reply.err)
		}
		if err := json.Unmarshal(reply.result, &subscriptionID); err != nil {
			return fmt.Errorf("invalid signatureSubscribe reply: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("subscribing to %s timed out: %w", signature, ctx.Err())
	}

	outcomeCh := make(chan signatureOutcome, 1)
	ws.mu.Lock()
	if outcome, ok := ws.unclaimed[subscriptionID]; ok {
		delete(ws.unclaimed, subscriptionID)
		outcomeCh <- outcome
	} else {
		ws.waiters[subscriptionID] = outcomeCh
	}
	ws.mu.Unlock()

	select {
	case outcome, ok := <-outcomeCh:
		if !ok {
			return fmt.Errorf("websocket closed while waiting for %s", signature)
		}
		if outcome.txErr != nil {
			return fmt.Errorf("transaction %s failed on chain: %v", signature, outcome.txErr)
		}
		return nil
	case <-ctx.Done():
		ws.mu.Lock()
		delete(ws.waiters, subscriptionID)
		ws.mu.Unlock()
		return fmt.Errorf("confirmation of %s timed out: %w", signature, ctx.Err())
	}
}
