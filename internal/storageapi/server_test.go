package storageapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/arjunmenon/meridian/internal/logservice"
	"github.com/arjunmenon/meridian/internal/nspath"
	"github.com/arjunmenon/meridian/internal/rpc"
	"github.com/arjunmenon/meridian/internal/storageengine"
)

type nopLogService struct{}

func (nopLogService) Debug(logservice.LogEvent) {}
func (nopLogService) Info(logservice.LogEvent)  {}
func (nopLogService) Warn(logservice.LogEvent)  {}
func (nopLogService) Error(logservice.LogEvent) {}

// fakeEngine records calls and returns canned results, so the dispatch
// and error mapping can be tested without a filesystem.
type fakeEngine struct {
	sizeResult int64
	sizeErr    error
	readResult []byte
	readErr    error
	writeErr   error
	created    bool
	deleted    bool

	lastOp   string
	lastPath string
}

func (f *fakeEngine) Size(p nspath.Path) (int64, error) {
	f.lastOp, f.lastPath = "size", p.String()
	return f.sizeResult, f.sizeErr
}

func (f *fakeEngine) Read(p nspath.Path, offset int64, length int) ([]byte, error) {
	f.lastOp, f.lastPath = "read", p.String()
	return f.readResult, f.readErr
}

func (f *fakeEngine) Write(p nspath.Path, offset int64, data []byte) error {
	f.lastOp, f.lastPath = "write", p.String()
	return f.writeErr
}

func (f *fakeEngine) Create(p nspath.Path) bool {
	f.lastOp, f.lastPath = "create", p.String()
	return f.created
}

func (f *fakeEngine) Delete(p nspath.Path) bool {
	f.lastOp, f.lastPath = "delete", p.String()
	return f.deleted
}

func call(t *testing.T, s *Server, msgType string, req any) *rpc.Response {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := s.Handler(context.Background(), rpc.Message{From: "test", Type: msgType, Payload: payload})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	return resp
}

func TestHandlerDispatch(t *testing.T) {
	engine := &fakeEngine{sizeResult: 42, readResult: []byte("ok"), created: true, deleted: true}
	s := NewServer(engine, nopLogService{})

	tests := []struct {
		name    string
		msgType string
		req     any
		wantOp  string
	}{
		{"size", MsgSize, SizeRequest{Path: "/f"}, "size"},
		{"read", MsgRead, ReadRequest{Path: "/f", Offset: 0, Length: 2}, "read"},
		{"write", MsgWrite, WriteRequest{Path: "/f", Offset: 0, Data: []byte("x")}, "write"},
		{"create", MsgCreate, CreateRequest{Path: "/f"}, "create"},
		{"delete", MsgDelete, DeleteRequest{Path: "/f"}, "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, s, tt.msgType, tt.req)
			if resp.Code != rpc.CodeOK {
				t.Fatalf("Handler(%s) code = %d, want OK", tt.msgType, resp.Code)
			}
			if engine.lastOp != tt.wantOp || engine.lastPath != "/f" {
				t.Errorf("Handler(%s) dispatched %s %s, want %s /f", tt.msgType, engine.lastOp, engine.lastPath, tt.wantOp)
			}
		})
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		engine   *fakeEngine
		msgType  string
		req      any
		wantCode rpc.StatusCode
		wantErr  string
	}{
		{"size not found", &fakeEngine{sizeErr: storageengine.ErrNotFound}, MsgSize, SizeRequest{Path: "/f"}, rpc.CodeNotFound, ErrCodeNotFound},
		{"read out of bounds", &fakeEngine{readErr: storageengine.ErrIndexOutOfBounds}, MsgRead, ReadRequest{Path: "/f", Length: 9}, rpc.CodeBadRequest, ErrCodeOutOfBounds},
		{"write nil data", &fakeEngine{writeErr: storageengine.ErrNilData}, MsgWrite, WriteRequest{Path: "/f"}, rpc.CodeBadRequest, ErrCodeNilArgument},
		{"write not found", &fakeEngine{writeErr: storageengine.ErrNotFound}, MsgWrite, WriteRequest{Path: "/f", Data: []byte{}}, rpc.CodeNotFound, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(tt.engine, nopLogService{})
			resp := call(t, s, tt.msgType, tt.req)
			if resp.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", resp.Code, tt.wantCode)
			}
			var body ErrorBody
			if err := json.Unmarshal(resp.Body, &body); err != nil {
				t.Fatalf("unmarshal error body: %v", err)
			}
			if body.Code != tt.wantErr {
				t.Errorf("error code = %s, want %s", body.Code, tt.wantErr)
			}
		})
	}
}

func TestHandlerRejectsMalformedPath(t *testing.T) {
	s := NewServer(&fakeEngine{}, nopLogService{})
	resp := call(t, s, MsgSize, SizeRequest{Path: "no-slash"})
	if resp.Code != rpc.CodeBadRequest {
		t.Errorf("code = %d, want BadRequest", resp.Code)
	}
}

func TestHandlerUnknownMessageType(t *testing.T) {
	s := NewServer(&fakeEngine{}, nopLogService{})
	resp := call(t, s, "storage.unknown", struct{}{})
	if resp.Code != rpc.CodeBadRequest {
		t.Errorf("code = %d, want BadRequest", resp.Code)
	}
}
