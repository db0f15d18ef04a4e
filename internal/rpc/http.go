package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/arjunmenon/meridian/internal/logservice"
)

// HTTPCommunicator is a Communicator backed by a plain JSON-over-HTTP
// POST to "/message".
type HTTPCommunicator struct {
	listenAddress string
	httpServer    *http.Server
	handler       Handler
	ls            logservice.LogService

	clientLock sync.RWMutex
	clients    map[string]*http.Client
}

// NewHTTPCommunicator creates a communicator that will listen on
// listenAddress once Start is called.
func NewHTTPCommunicator(listenAddress string, ls logservice.LogService) *HTTPCommunicator {
	return &HTTPCommunicator{
		listenAddress: listenAddress,
		ls:            ls,
		clients:       make(map[string]*http.Client),
	}
}

func (c *HTTPCommunicator) Address() string {
	return c.listenAddress
}

func (c *HTTPCommunicator) Start(handler Handler) error {
	c.ls.Info(logservice.LogEvent{Message: "starting rpc communicator", Metadata: map[string]any{"address": c.listenAddress}})

	c.handler = handler

	mux := http.NewServeMux()
	mux.HandleFunc("/message", c.handleHTTPMessage)

	c.httpServer = &http.Server{
		Addr:    c.listenAddress,
		Handler: mux,
	}

	lis, err := net.Listen("tcp", c.listenAddress)
	if err != nil {
		c.ls.Error(logservice.LogEvent{Message: "failed to listen", Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()}})
		return fmt.Errorf("%w: %v", ErrServerStartFailed, err)
	}
	// A listener with port 0 resolves to an ephemeral port; reflect the
	// actual bound address back so callers advertise a dialable stub.
	c.listenAddress = lis.Addr().String()

	go func() {
		if err := c.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			c.ls.Error(logservice.LogEvent{Message: "rpc server error", Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()}})
		}
	}()

	c.ls.Info(logservice.LogEvent{Message: "rpc communicator started", Metadata: map[string]any{"address": c.listenAddress}})
	return nil
}

func (c *HTTPCommunicator) Stop() error {
	c.ls.Info(logservice.LogEvent{Message: "stopping rpc communicator", Metadata: map[string]any{"address": c.listenAddress}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.httpServer.Shutdown(ctx); err != nil {
		c.ls.Error(logservice.LogEvent{Message: "failed to stop rpc communicator", Metadata: map[string]any{"error": err.Error()}})
		return ErrServerStopFailed
	}
	return nil
}

func mapFromHTTPCode(code int) StatusCode {
	switch code {
	case http.StatusOK:
		return CodeOK
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

func mapToHTTPCode(code StatusCode) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (c *HTTPCommunicator) clientFor(to string) *http.Client {
	c.clientLock.RLock()
	client, ok := c.clients[to]
	c.clientLock.RUnlock()
	if ok {
		return client
	}

	client = &http.Client{Timeout: 5 * time.Second}
	c.clientLock.Lock()
	c.clients[to] = client
	c.clientLock.Unlock()
	return client
}

func (c *HTTPCommunicator) Send(ctx context.Context, toAddr, msgType string, payload any) (*Response, error) {
	c.ls.Debug(logservice.LogEvent{Message: "sending rpc message", Metadata: map[string]any{"to": toAddr, "type": msgType}})

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, ErrMessageMarshalFailed
	}

	msg := Message{From: c.listenAddress, Type: msgType, Payload: payloadJSON}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, ErrMessageMarshalFailed
	}

	url := fmt.Sprintf("http://%s/message", toAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, ErrHTTPRequestCreateFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.clientFor(toAddr).Do(req)
	if err != nil {
		return nil, ErrHTTPRequestSendFailed
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrHTTPResponseReadFailed
	}

	return &Response{Code: mapFromHTTPCode(resp.StatusCode), Body: respBody}, nil
}

func (c *HTTPCommunicator) handleHTTPMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, ErrHTTPBodyReadFailed.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		http.Error(w, ErrInvalidJSON.Error(), http.StatusBadRequest)
		return
	}
	if msg.From == "" || msg.Type == "" {
		http.Error(w, ErrMissingRequiredFields.Error(), http.StatusBadRequest)
		return
	}

	if c.handler == nil {
		http.Error(w, ErrHandlerNotSet.Error(), http.StatusInternalServerError)
		return
	}

	resp, err := c.handler(r.Context(), msg)
	if err != nil {
		http.Error(w, fmt.Sprintf("handler error: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(mapToHTTPCode(resp.Code))
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}

var _ Communicator = (*HTTPCommunicator)(nil)
