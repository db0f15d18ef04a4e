package storageapi

import (
	"context"
	"encoding/json"

	"github.com/arjunmenon/meridian/internal/logservice"
	"github.com/arjunmenon/meridian/internal/nspath"
	"github.com/arjunmenon/meridian/internal/rpc"
	"github.com/arjunmenon/meridian/internal/storageengine"
)

// Engine is the subset of storageengine.Engine the server handler needs,
// kept narrow so tests can substitute a fake.
type Engine interface {
	Size(path nspath.Path) (int64, error)
	Read(path nspath.Path, offset int64, length int) ([]byte, error)
	Write(path nspath.Path, offset int64, data []byte) error
	Create(path nspath.Path) bool
	Delete(path nspath.Path) bool
}

// Server dispatches incoming storageapi messages to an Engine. It is
// wired into two separate rpc.Communicator instances by the caller: one
// for the Storage endpoint (Size/Read/Write), one for the Command
// endpoint (Create/Delete).
type Server struct {
	engine Engine
	ls     logservice.LogService
}

// NewServer wraps engine for RPC dispatch.
func NewServer(engine Engine, ls logservice.LogService) *Server {
	return &Server{engine: engine, ls: ls}
}

// Handler implements rpc.Handler, routing by message type.
func (s *Server) Handler(ctx context.Context, msg rpc.Message) (*rpc.Response, error) {
	switch msg.Type {
	case MsgSize:
		return s.handleSize(msg)
	case MsgRead:
		return s.handleRead(msg)
	case MsgWrite:
		return s.handleWrite(msg)
	case MsgCreate:
		return s.handleCreate(msg)
	case MsgDelete:
		return s.handleDelete(msg)
	default:
		return errResponse(rpc.CodeBadRequest, "", "unknown message type "+msg.Type), nil
	}
}

func errResponse(code rpc.StatusCode, errCode, message string) *rpc.Response {
	body, _ := json.Marshal(ErrorBody{Code: errCode, Message: message})
	return &rpc.Response{Code: code, Body: body}
}

func okResponse(body any) *rpc.Response {
	b, _ := json.Marshal(body)
	return &rpc.Response{Code: rpc.CodeOK, Body: b}
}

func (s *Server) handleSize(msg rpc.Message) (*rpc.Response, error) {
	var req SizeRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	path, err := nspath.New(req.Path)
	if err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	size, err := s.engine.Size(path)
	if err != nil {
		return errResponse(rpc.CodeNotFound, ErrCodeNotFound, err.Error()), nil
	}
	return okResponse(SizeResponse{Size: size}), nil
}

func (s *Server) handleRead(msg rpc.Message) (*rpc.Response, error) {
	var req ReadRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	path, err := nspath.New(req.Path)
	if err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	data, err := s.engine.Read(path, req.Offset, req.Length)
	if err != nil {
		if err == storageengine.ErrIndexOutOfBounds {
			return errResponse(rpc.CodeBadRequest, ErrCodeOutOfBounds, err.Error()), nil
		}
		return errResponse(rpc.CodeNotFound, ErrCodeNotFound, err.Error()), nil
	}
	return okResponse(ReadResponse{Data: data}), nil
}

func (s *Server) handleWrite(msg rpc.Message) (*rpc.Response, error) {
	var req WriteRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	path, err := nspath.New(req.Path)
	if err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	if err := s.engine.Write(path, req.Offset, req.Data); err != nil {
		switch err {
		case storageengine.ErrNilData:
			return errResponse(rpc.CodeBadRequest, ErrCodeNilArgument, err.Error()), nil
		case storageengine.ErrIndexOutOfBounds:
			return errResponse(rpc.CodeBadRequest, ErrCodeOutOfBounds, err.Error()), nil
		case storageengine.ErrNotFound:
			return errResponse(rpc.CodeNotFound, ErrCodeNotFound, err.Error()), nil
		default:
			return errResponse(rpc.CodeInternal, ErrCodeIO, err.Error()), nil
		}
	}
	return okResponse(WriteResponse{}), nil
}

func (s *Server) handleCreate(msg rpc.Message) (*rpc.Response, error) {
	var req CreateRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	path, err := nspath.New(req.Path)
	if err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	return okResponse(CreateResponse{Created: s.engine.Create(path)}), nil
}

func (s *Server) handleDelete(msg rpc.Message) (*rpc.Response, error) {
	var req DeleteRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	path, err := nspath.New(req.Path)
	if err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	return okResponse(DeleteResponse{Deleted: s.engine.Delete(path)}), nil
}
