package naming

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/arjunmenon/meridian/internal/nspath"
	"github.com/arjunmenon/meridian/internal/rpc"
	"github.com/arjunmenon/meridian/internal/storageapi"
)

// serviceHandler dispatches the client-facing Service endpoint.
func (s *Server) serviceHandler(ctx context.Context, msg rpc.Message) (*rpc.Response, error) {
	switch msg.Type {
	case MsgIsDirectory:
		return s.handleIsDirectory(msg)
	case MsgList:
		return s.handleList(msg)
	case MsgCreateFile:
		return s.handleCreateFile(ctx, msg)
	case MsgCreateDirectory:
		return s.handleCreateDirectory(ctx, msg)
	case MsgDelete:
		return s.handleDelete(ctx, msg)
	case MsgGetStorage:
		return s.handleGetStorage(msg)
	default:
		return errResponse(rpc.CodeBadRequest, "", errUnknownMessage.Error()+" "+msg.Type), nil
	}
}

// registrationHandler dispatches the storage-server-facing Registration
// endpoint. Only register is served here.
func (s *Server) registrationHandler(ctx context.Context, msg rpc.Message) (*rpc.Response, error) {
	switch msg.Type {
	case MsgRegister:
		return s.handleRegister(msg)
	default:
		return errResponse(rpc.CodeBadRequest, "", errUnknownMessage.Error()+" "+msg.Type), nil
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

// domainError maps the naming package's sentinel errors onto a transport
// status and the wire-level error code clients use to reconstruct them.
func domainError(err error) *rpc.Response {
	switch {
	case errors.Is(err, ErrNotFound):
		return errResponse(rpc.CodeNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, ErrNoStorageAvailable):
		return errResponse(rpc.CodeUnavailable, ErrCodeNoStorageAvailable, err.Error())
	case errors.Is(err, ErrNilArgument):
		return errResponse(rpc.CodeBadRequest, ErrCodeNilArgument, err.Error())
	case errors.Is(err, ErrAlreadyRegistered):
		return errResponse(rpc.CodeBadRequest, ErrCodeAlreadyRegistered, err.Error())
	default:
		return errResponse(rpc.CodeInternal, ErrCodeRemoteFailure, err.Error())
	}
}

func parsePath(raw string) (nspath.Path, *rpc.Response) {
	p, err := nspath.New(raw)
	if err != nil {
		return nspath.Path{}, errResponse(rpc.CodeBadRequest, "", err.Error())
	}
	return p, nil
}

func (s *Server) handleIsDirectory(msg rpc.Message) (*rpc.Response, error) {
	var req IsDirectoryRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	p, errResp := parsePath(req.Path)
	if errResp != nil {
		return errResp, nil
	}
	isDir, err := s.IsDirectory(p)
	if err != nil {
		return domainError(err), nil
	}
	return okResponse(IsDirectoryResponse{IsDirectory: isDir}), nil
}

func (s *Server) handleList(msg rpc.Message) (*rpc.Response, error) {
	var req ListRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	p, errResp := parsePath(req.Path)
	if errResp != nil {
		return errResp, nil
	}
	names, err := s.List(p)
	if err != nil {
		return domainError(err), nil
	}
	return okResponse(ListResponse{Names: names}), nil
}

func (s *Server) handleCreateFile(ctx context.Context, msg rpc.Message) (*rpc.Response, error) {
	var req CreateFileRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	p, errResp := parsePath(req.Path)
	if errResp != nil {
		return errResp, nil
	}
	created, err := s.CreateFile(ctx, p)
	if err != nil {
		return domainError(err), nil
	}
	return okResponse(CreateFileResponse{Created: created}), nil
}

func (s *Server) handleCreateDirectory(ctx context.Context, msg rpc.Message) (*rpc.Response, error) {
	var req CreateDirectoryRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	p, errResp := parsePath(req.Path)
	if errResp != nil {
		return errResp, nil
	}
	created, err := s.CreateDirectory(ctx, p)
	if err != nil {
		return domainError(err), nil
	}
	return okResponse(CreateDirectoryResponse{Created: created}), nil
}

func (s *Server) handleDelete(ctx context.Context, msg rpc.Message) (*rpc.Response, error) {
	var req DeleteRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	p, errResp := parsePath(req.Path)
	if errResp != nil {
		return errResp, nil
	}
	deleted, err := s.Delete(ctx, p)
	if err != nil {
		return domainError(err), nil
	}
	return okResponse(DeleteResponse{Deleted: deleted}), nil
}

func (s *Server) handleGetStorage(msg rpc.Message) (*rpc.Response, error) {
	var req GetStorageRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}
	p, errResp := parsePath(req.Path)
	if errResp != nil {
		return errResp, nil
	}
	stub, err := s.GetStorage(p)
	if err != nil {
		return domainError(err), nil
	}
	return okResponse(GetStorageResponse{DataAddr: stub.Addr()}), nil
}

func (s *Server) handleRegister(msg rpc.Message) (*rpc.Response, error) {
	var req RegisterRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
	}

	// A missing paths array must surface as ErrNilArgument, so only
	// materialize a non-nil slice when the caller actually sent one.
	var paths []nspath.Path
	if req.Paths != nil {
		paths = make([]nspath.Path, 0, len(req.Paths))
		for _, raw := range req.Paths {
			p, err := nspath.New(raw)
			if err != nil {
				return errResponse(rpc.CodeBadRequest, "", err.Error()), nil
			}
			paths = append(paths, p)
		}
	}

	data := storageapi.NewDataStub(s.serviceComm, req.DataAddr)
	command := storageapi.NewCommandStub(s.serviceComm, req.CommandAddr)

	deleteList, err := s.Register(data, command, paths)
	if err != nil {
		return domainError(err), nil
	}

	resp := RegisterResponse{DeleteList: make([]string, len(deleteList))}
	for i, p := range deleteList {
		resp.DeleteList[i] = p.String()
	}
	return okResponse(resp), nil
}
