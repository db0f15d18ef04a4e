package storageapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arjunmenon/meridian/internal/nspath"
	"github.com/arjunmenon/meridian/internal/rpc"
)

// DataStub is the client-facing handle to a storage server's Storage
// endpoint: size/read/write. It is the "data stub" the naming server
// hands out from getStorage and files away per path in its stub indexes.
type DataStub struct {
	addr string
	comm rpc.Communicator
}

// NewDataStub wraps addr as a DataStub reachable over comm.
func NewDataStub(comm rpc.Communicator, addr string) DataStub {
	return DataStub{addr: addr, comm: comm}
}

// Addr is the stub's dialable address; two stubs with the same Addr refer
// to the same storage server endpoint.
func (s DataStub) Addr() string { return s.addr }

func (s DataStub) Size(ctx context.Context, path nspath.Path) (int64, error) {
	var resp SizeResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgSize, SizeRequest{Path: path.String()}, &resp)
	if err != nil {
		return 0, err
	}
	if r.Code != rpc.CodeOK {
		return 0, errorFromResponse(r)
	}
	return resp.Size, nil
}

func (s DataStub) Read(ctx context.Context, path nspath.Path, offset int64, length int) ([]byte, error) {
	var resp ReadResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgRead, ReadRequest{Path: path.String(), Offset: offset, Length: length}, &resp)
	if err != nil {
		return nil, err
	}
	if r.Code != rpc.CodeOK {
		return nil, errorFromResponse(r)
	}
	return resp.Data, nil
}

func (s DataStub) Write(ctx context.Context, path nspath.Path, offset int64, data []byte) error {
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgWrite, WriteRequest{Path: path.String(), Offset: offset, Data: data}, nil)
	if err != nil {
		return err
	}
	if r.Code != rpc.CodeOK {
		return errorFromResponse(r)
	}
	return nil
}

// CommandStub is the naming-server-facing handle to a storage server's
// Command endpoint: create/delete.
type CommandStub struct {
	addr string
	comm rpc.Communicator
}

// NewCommandStub wraps addr as a CommandStub reachable over comm.
func NewCommandStub(comm rpc.Communicator, addr string) CommandStub {
	return CommandStub{addr: addr, comm: comm}
}

func (s CommandStub) Addr() string { return s.addr }

func (s CommandStub) Create(ctx context.Context, path nspath.Path) (bool, error) {
	var resp CreateResponse
	r, err := rpc.Call(ctx, s.comm, s.addr, MsgCreate, CreateRequest{Path: path.String()}, &resp)
	if err != nil {
		return false, err
	}
	if r.Code != rpc.CodeOK {
		return false, errorFromResponse(r)
	}
	return resp.Created, nil
}

func (s CommandStub) Delete(ctx context.Context, path nspath.Path) (bool, error) {
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

func errorFromResponse(r *rpc.Response) error {
	var body ErrorBody
	if len(r.Body) > 0 {
		if err := json.Unmarshal(r.Body, &body); err == nil && body.Message != "" {
			return fmt.Errorf("storageapi: remote error (%s): %s", body.Code, body.Message)
		}
	}
	return fmt.Errorf("storageapi: remote call failed with code %d", r.Code)
}
