// Package naming wires a complete naming-server process: log service,
// the two RPC endpoints, and the naming server itself.
package naming

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arjunmenon/meridian/internal/logservice"
	logdisc "github.com/arjunmenon/meridian/internal/logservice/localdisc"
	namingsrv "github.com/arjunmenon/meridian/internal/naming"
	"github.com/arjunmenon/meridian/internal/rpc"
)

type Options struct {
	NodeID           string
	Hostname         string
	ServicePort      int
	RegistrationPort int
	LogDir           string
	LogLevel         string
}

type runnable interface {
	Run() error
}

type namingProcess struct {
	server *namingsrv.Server
	ls     logservice.LogService
}

func (p *namingProcess) Run() error {
	if err := p.server.Start(); err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	return p.server.Stop()
}

// Build assembles a naming-server process from opts. The returned
// runnable blocks in Run until interrupted.
func Build(opts Options) (runnable, error) {
	ls, err := logdisc.New(opts.LogDir, opts.NodeID, opts.LogLevel)
	if err != nil {
		return nil, err
	}

	serviceComm := rpc.NewHTTPCommunicator(fmt.Sprintf(":%d", opts.ServicePort), ls)
	registrationComm := rpc.NewHTTPCommunicator(fmt.Sprintf(":%d", opts.RegistrationPort), ls)

	server := namingsrv.NewServer(serviceComm, registrationComm, ls)
	server.OnStopped = func(cause error) {
		if cause != nil {
			ls.Error(logservice.LogEvent{Message: "naming server stopped with error", Metadata: map[string]any{"error": cause.Error()}})
			return
		}
		ls.Info(logservice.LogEvent{Message: "naming server stopped cleanly"})
	}

	return &namingProcess{server: server, ls: ls}, nil
}
