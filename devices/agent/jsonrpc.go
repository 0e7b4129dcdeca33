package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type jsonRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

const defaultCallTimeout = 5 * time.Second

func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return c.callWithTimeout(ctx, method, params, defaultCallTimeout)
}

func (c *Client) callWithTimeout(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	if err := c.connect(); err != nil {
		return nil, err
	}

	id := c.requestID.Add(1)

	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	}

	ch := make(chan jsonRPCResponse, 1)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("websocket connection closed")
	}
	c.pending[id] = ch
	err := c.conn.WriteJSON(req)
	c.mu.Unlock()

	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to send request to %s: %w", method, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("websocket connection closed while waiting for %s", method)
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("agent error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil

	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()

	case <-timer.C:
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("timeout waiting for response to %s", method)
	}
}
