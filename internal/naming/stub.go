package naming

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arjunmenon/meridian/internal/nspath"
	"github.com/arjunmenon/meridian/internal/rpc"
	"github.com/arjunmenon/meridian/internal/storageapi"
)

// ServiceStub is the client-side handle to a naming server's Service
// endpoint. Remote domain failures are mapped back onto this package's
// sentinel errors, so a caller cannot tell a remote naming server from an
// in-process one by the errors it returns.
type ServiceStub struct {
	addr string
	comm rpc.Communicator
}

// NewServiceStub wraps addr as a ServiceStub reachable over comm.
func NewServiceStub(comm rpc.Communicator, addr string) ServiceStub {
	return ServiceStub{addr: addr, comm: comm}
}

// Addr is the stub's dialable address.
func (s ServiceStub) Addr() string { return s.addr }

func (s ServiceStub) IsDirectory(ctx context.Context, path nspath.Path) (bool, error) {
	var resp IsDirectoryResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgIsDirectory, IsDirectoryRequest{Path: path.String()}, &resp)
	if err != nil {
		return false, err
	}
	if r.Code != rpc.CodeOK {
		return false, errorFromResponse(r)
	}
	return resp.IsDirectory, nil
}

func (s ServiceStub) List(ctx context.Context, path nspath.Path) ([]string, error) {
	var resp ListResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgList, ListRequest{Path: path.String()}, &resp)
	if err != nil {
		return nil, err
	}
	if r.Code != rpc.CodeOK {
		return nil, errorFromResponse(r)
	}
	return resp.Names, nil
}

func (s ServiceStub) CreateFile(ctx context.Context, path nspath.Path) (bool, error) {
	var resp CreateFileResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgCreateFile, CreateFileRequest{Path: path.String()}, &resp)
	if err != nil {
		return false, err
	}
	if r.Code != rpc.CodeOK {
		return false, errorFromResponse(r)
	}
	return resp.Created, nil
}

func (s ServiceStub) CreateDirectory(ctx context.Context, path nspath.Path) (bool, error) {
	var resp CreateDirectoryResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgCreateDirectory, CreateDirectoryRequest{Path: path.String()}, &resp)
	if err != nil {
		return false, err
	}
	if r.Code != rpc.CodeOK {
		return false, errorFromResponse(r)
	}
	return resp.Created, nil
}

func (s ServiceStub) Delete(ctx context.Context, path nspath.Path) (bool, error) {
	var resp DeleteResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgDelete, DeleteRequest{Path: path.String()}, &resp)
	if err != nil {
		return false, err
	}
	if r.Code != rpc.CodeOK {
		return false, errorFromResponse(r)
	}
	return resp.Deleted, nil
}

// GetStorage resolves path to a data stub dialable over the stub's own
// communicator.
func (s ServiceStub) GetStorage(ctx context.Context, path nspath.Path) (storageapi.DataStub, error) {
	var resp GetStorageResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgGetStorage, GetStorageRequest{Path: path.String()}, &resp)
	if err != nil {
		return storageapi.DataStub{}, err
	}
	if r.Code != rpc.CodeOK {
		return storageapi.DataStub{}, errorFromResponse(r)
	}
	return storageapi.NewDataStub(s.comm, resp.DataAddr), nil
}

// RegistrationStub is the storage-server-side handle to a naming server's
// Registration endpoint.
type RegistrationStub struct {
	addr string
	comm rpc.Communicator
}

// NewRegistrationStub wraps addr as a RegistrationStub reachable over
// comm.
func NewRegistrationStub(comm rpc.Communicator, addr string) RegistrationStub {
	return RegistrationStub{addr: addr, comm: comm}
}

func (s RegistrationStub) Addr() string { return s.addr }

// Register offers the caller's stub addresses and file inventory to the
// naming server and returns the delete list the caller must prune
// locally.
func (s RegistrationStub) Register(ctx context.Context, dataAddr, commandAddr string, paths []nspath.Path) ([]nspath.Path, error) {
	req := RegisterRequest{DataAddr: dataAddr, CommandAddr: commandAddr}
	if paths != nil {
		req.Paths = make([]string, len(paths))
		for i, p := range paths {
			req.Paths[i] = p.String()
		}
	}

	var resp RegisterResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgRegister, req, &resp)
	if err != nil {
		return nil, err
	}
	if r.Code != rpc.CodeOK {
		return nil, errorFromResponse(r)
	}

	deleteList := make([]nspath.Path, 0, len(resp.DeleteList))
	for _, raw := range resp.DeleteList {
		p, err := nspath.New(raw)
		if err != nil {
			return nil, fmt.Errorf("naming: malformed path %q in delete list: %w", raw, err)
		}
		deleteList = append(deleteList, p)
	}
	return deleteList, nil
}

// errorFromResponse reconstructs the sentinel error a remote handler
// reported through its ErrorBody code.
func errorFromResponse(r *rpc.Response) error {
	var body ErrorBody
	if len(r.Body) > 0 {
		if err := json.Unmarshal(r.Body, &body); err == nil {
			switch body.Code {
			case ErrCodeNotFound:
				return ErrNotFound
			case ErrCodeNoStorageAvailable:
				return ErrNoStorageAvailable
			case ErrCodeNilArgument:
				return ErrNilArgument
			case ErrCodeAlreadyRegistered:
				return ErrAlreadyRegistered
			}
			if body.Message != "" {
				return fmt.Errorf("naming: remote error (%s): %s", body.Code, body.Message)
			}
		}
	}
	return &rpc.RemoteError{Code: r.Code, Body: r.Body}
}
