// Package rpc is the generic skeleton-and-stub transport layer shared by
// the naming server's Service/Registration endpoints and the storage
// server's Storage/Command endpoints. Callers address a peer by its
// listen address and a message type; payloads are JSON.
package rpc

import (
	"context"
	"encoding/json"
)

// StatusCode is the transport-level outcome of a call, independent of
// whatever application-level error payload a handler returns.
type StatusCode int

const (
	CodeOK StatusCode = iota
	CodeBadRequest
	CodeNotFound
	CodeInternal
	CodeUnavailable
)

// Message is a single request sent to a remote endpoint.
type Message struct {
	From    string          `json:"from"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is what a Handler or a Communicator.Send call produces.
type Response struct {
	Code StatusCode      `json:"code"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Handler processes one incoming Message and produces a Response. A
// non-nil error is a programmer/transport error (not a domain NotFound,
// which handlers encode in the Response body).
type Handler func(ctx context.Context, msg Message) (*Response, error)

// Communicator is the generic skeleton+stub transport: Start exposes a
// Handler at Address, and Send dispatches a typed call to a remote
// Communicator's address.
type Communicator interface {
	Address() string
	Start(handler Handler) error
	Stop() error
	Send(ctx context.Context, toAddr string, msgType string, payload any) (*Response, error)
}

// Call is a convenience wrapper: marshal req, send it, and unmarshal the
// response body into resp (if non-nil and the call succeeded).
func Call(ctx context.Context, c Communicator, toAddr, msgType string, req any, resp any) (*Response, error) {
	r, err := c.Send(ctx, toAddr, msgType, req)
	if err != nil {
		return nil, err
	}
	if resp != nil && r.Code == CodeOK && len(r.Body) > 0 {
		if err := json.Unmarshal(r.Body, resp); err != nil {
			return r, err
		}
	}
	return r, nil
}
