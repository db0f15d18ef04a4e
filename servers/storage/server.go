// Package storage wires a complete storage-server process: log service,
// the storage engine, the Storage and Command RPC endpoints, and the
// boot-time registration handshake with the naming server.
package storage

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arjunmenon/meridian/internal/logservice"
	logdisc "github.com/arjunmenon/meridian/internal/logservice/localdisc"
	"github.com/arjunmenon/meridian/internal/naming"
	"github.com/arjunmenon/meridian/internal/rpc"
	"github.com/arjunmenon/meridian/internal/storageapi"
	"github.com/arjunmenon/meridian/internal/storageengine"
)

type Options struct {
	NodeID      string
	Hostname    string
	StoragePort int
	CommandPort int
	Root        string
	NamingAddr  string
	LogDir      string
	LogLevel    string
}

type runnable interface {
	Run() error
}

type storageProcess struct {
	opts        Options
	engine      *storageengine.Engine
	storageComm *rpc.HTTPCommunicator
	commandComm *rpc.HTTPCommunicator
	ls          logservice.LogService
}

// advertised rewrites a bound listen address so it carries the
// externally routable hostname from the options instead of a wildcard
// or loopback host.
func (p *storageProcess) advertised(comm *rpc.HTTPCommunicator) (string, error) {
	_, port, err := net.SplitHostPort(comm.Address())
	if err != nil {
		return "", fmt.Errorf("storage: bad bound address %q: %w", comm.Address(), err)
	}
	return net.JoinHostPort(p.opts.Hostname, port), nil
}

func (p *storageProcess) Run() error {
	handler := storageapi.NewServer(p.engine, p.ls).Handler

	if err := p.storageComm.Start(handler); err != nil {
		return err
	}
	if err := p.commandComm.Start(handler); err != nil {
		p.storageComm.Stop()
		return err
	}

	if err := p.register(); err != nil {
		p.storageComm.Stop()
		p.commandComm.Stop()
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	err := p.storageComm.Stop()
	if cmdErr := p.commandComm.Stop(); err == nil {
		err = cmdErr
	}
	return err
}

// register scans the local root, offers the inventory to the naming
// server, then prunes whatever the naming server asked to delete along
// with any directories left empty.
func (p *storageProcess) register() error {
	paths, err := p.engine.Scan()
	if err != nil {
		return fmt.Errorf("storage: scan %s: %w", p.engine.Root(), err)
	}

	dataAddr, err := p.advertised(p.storageComm)
	if err != nil {
		return err
	}
	commandAddr, err := p.advertised(p.commandComm)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stub := naming.NewRegistrationStub(p.storageComm, p.opts.NamingAddr)
	deleteList, err := stub.Register(ctx, dataAddr, commandAddr, paths)
	if err != nil {
		return fmt.Errorf("storage: register with %s: %w", p.opts.NamingAddr, err)
	}

	p.ls.Info(logservice.LogEvent{Message: "registered with naming server", Metadata: map[string]any{
		"naming":  p.opts.NamingAddr,
		"offered": len(paths),
		"deleted": len(deleteList),
	}})

	p.engine.Prune(deleteList)
	return nil
}

// Build assembles a storage-server process from opts. The returned
// runnable registers with the naming server on startup and blocks in Run
// until interrupted.
func Build(opts Options) (runnable, error) {
	ls, err := logdisc.New(opts.LogDir, opts.NodeID, opts.LogLevel)
	if err != nil {
		return nil, err
	}

	engine, err := storageengine.New(opts.Root, ls)
	if err != nil {
		return nil, err
	}

	return &storageProcess{
		opts:        opts,
		engine:      engine,
		storageComm: rpc.NewHTTPCommunicator(fmt.Sprintf(":%d", opts.StoragePort), ls),
		commandComm: rpc.NewHTTPCommunicator(fmt.Sprintf(":%d", opts.CommandPort), ls),
		ls:          ls,
	}, nil
}
