// Package client is a thin convenience library over the naming server's
// Service surface and the storage servers' Storage surface. Structure
// operations go through the naming server; bulk data goes directly to
// the storage server the naming server routes to.
package client

import (
	"context"

	"github.com/arjunmenon/meridian/internal/naming"
	"github.com/arjunmenon/meridian/internal/nspath"
	"github.com/arjunmenon/meridian/internal/rpc"
)

// Client talks to one distributed filesystem: a naming server plus
// whatever storage servers it routes to.
type Client struct {
	svc  naming.ServiceStub
	comm rpc.Communicator
}

// New creates a Client against the naming server's Service endpoint at
// serviceAddr, making all outbound calls over comm.
func New(comm rpc.Communicator, serviceAddr string) *Client {
	return &Client{
		svc:  naming.NewServiceStub(comm, serviceAddr),
		comm: comm,
	}
}

// IsDirectory reports whether path names a directory.
func (c *Client) IsDirectory(ctx context.Context, path string) (bool, error) {
	p, err := nspath.New(path)
	if err != nil {
		return false, err
	}
	return c.svc.IsDirectory(ctx, p)
}

// List returns the child names of the directory at path.
func (c *Client) List(ctx context.Context, path string) ([]string, error) {
	p, err := nspath.New(path)
	if err != nil {
		return nil, err
	}
	return c.svc.List(ctx, p)
}

// CreateFile creates an empty file at path. The parent directory must
// already exist. Returns false if path already exists.
func (c *Client) CreateFile(ctx context.Context, path string) (bool, error) {
	p, err := nspath.New(path)
	if err != nil {
		return false, err
	}
	return c.svc.CreateFile(ctx, p)
}

// CreateDirectory creates a directory at path. The parent directory must
// already exist. Returns false if path already exists.
func (c *Client) CreateDirectory(ctx context.Context, path string) (bool, error) {
	p, err := nspath.New(path)
	if err != nil {
		return false, err
	}
	return c.svc.CreateDirectory(ctx, p)
}

// Delete removes path everywhere, recursively for directories.
func (c *Client) Delete(ctx context.Context, path string) (bool, error) {
	p, err := nspath.New(path)
	if err != nil {
		return false, err
	}
	return c.svc.Delete(ctx, p)
}

// Size returns the byte size of the file at path.
func (c *Client) Size(ctx context.Context, path string) (int64, error) {
	p, err := nspath.New(path)
	if err != nil {
		return 0, err
	}
	stub, err := c.svc.GetStorage(ctx, p)
	if err != nil {
		return 0, err
	}
	return stub.Size(ctx, p)
}

// Read returns exactly length bytes of the file at path, starting at
// offset, fetched directly from a storage server hosting it.
func (c *Client) Read(ctx context.Context, path string, offset int64, length int) ([]byte, error) {
	p, err := nspath.New(path)
	if err != nil {
		return nil, err
	}
	stub, err := c.svc.GetStorage(ctx, p)
	if err != nil {
		return nil, err
	}
	return stub.Read(ctx, p, offset, length)
}

// Write writes data into the file at path starting at offset, directly
// on a storage server hosting it. A gap past end-of-file is zero-filled.
func (c *Client) Write(ctx context.Context, path string, offset int64, data []byte) error {
	p, err := nspath.New(path)
	if err != nil {
		return err
	}
	stub, err := c.svc.GetStorage(ctx, p)
	if err != nil {
		return err
	}
	return stub.Write(ctx, p, offset, data)
}
