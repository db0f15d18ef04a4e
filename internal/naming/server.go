package naming

import (
	"context"
	"errors"
	"sync"

	"github.com/arjunmenon/meridian/internal/logservice"
	"github.com/arjunmenon/meridian/internal/namespace"
	"github.com/arjunmenon/meridian/internal/nspath"
	"github.com/arjunmenon/meridian/internal/registry"
	"github.com/arjunmenon/meridian/internal/rpc"
	"github.com/arjunmenon/meridian/internal/storageapi"
)

type lifecycleState int

const (
	stateStopped lifecycleState = iota
	stateRunning
	stateDone
)

// Server is one naming server: the authoritative namespace tree, the
// registered-storage-server pool, and the two RPC endpoints (Service for
// clients, Registration for storage servers). Multiple Servers can
// coexist in one process; there is no package-level state.
type Server struct {
	ns  *namespace.Namespace
	reg *registry.Registry
	ls  logservice.LogService

	serviceComm      rpc.Communicator
	registrationComm rpc.Communicator

	// OnStopped, if set, is invoked once after Stop completes, with the
	// first error encountered while stopping (nil on a clean stop).
	OnStopped func(error)

	mu    sync.Mutex
	state lifecycleState
}

// NewServer creates a naming server whose Service endpoint listens on
// serviceComm and whose Registration endpoint listens on
// registrationComm. Outbound calls to storage-server command stubs reuse
// serviceComm as their transport.
func NewServer(serviceComm, registrationComm rpc.Communicator, ls logservice.LogService) *Server {
	return &Server{
		ns:               namespace.New(),
		reg:              registry.New(),
		ls:               ls,
		serviceComm:      serviceComm,
		registrationComm: registrationComm,
	}
}

// Start brings the server to Running: both endpoints must be listening
// for the transition to succeed. If either endpoint fails to start, the
// other is stopped again and the cause is returned. A server can be
// started at most once.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateRunning:
		return ErrAlreadyStarted
	case stateDone:
		return ErrNotRestartable
	}

	if err := s.serviceComm.Start(s.serviceHandler); err != nil {
		return err
	}
	if err := s.registrationComm.Start(s.registrationHandler); err != nil {
		if stopErr := s.serviceComm.Stop(); stopErr != nil {
			s.ls.Error(logservice.LogEvent{Message: "failed to roll back service endpoint", Metadata: map[string]any{"error": stopErr.Error()}})
		}
		return err
	}

	s.state = stateRunning
	s.ls.Info(logservice.LogEvent{Message: "naming server running", Metadata: map[string]any{
		"service":      s.serviceComm.Address(),
		"registration": s.registrationComm.Address(),
	}})
	return nil
}

// Stop shuts down both endpoints. The server is not reusable afterwards.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateRunning {
		return ErrNotRunning
	}
	s.state = stateDone

	err := s.serviceComm.Stop()
	if regErr := s.registrationComm.Stop(); err == nil {
		err = regErr
	}

	s.ls.Info(logservice.LogEvent{Message: "naming server stopped"})
	if s.OnStopped != nil {
		s.OnStopped(err)
	}
	return err
}

// ServiceAddress returns the Service endpoint's dialable address.
func (s *Server) ServiceAddress() string { return s.serviceComm.Address() }

// RegistrationAddress returns the Registration endpoint's dialable
// address.
func (s *Server) RegistrationAddress() string { return s.registrationComm.Address() }

// IsDirectory reports whether path is a known directory.
func (s *Server) IsDirectory(p nspath.Path) (bool, error) {
	isDir, err := s.ns.IsDirectory(p)
	if err != nil {
		return false, ErrNotFound
	}
	return isDir, nil
}

// List returns the child names of a known directory.
func (s *Server) List(p nspath.Path) ([]string, error) {
	names, err := s.ns.List(p)
	if err != nil {
		return nil, ErrNotFound
	}
	return names, nil
}

// CreateFile creates an empty file at p on the storage server chosen by
// placement. Returns false if p already exists, ErrNotFound if p's parent
// directory does not, and the remote error as-is if the chosen server
// cannot be reached.
func (s *Server) CreateFile(ctx context.Context, p nspath.Path) (bool, error) {
	return s.create(ctx, p, false)
}

// CreateDirectory is CreateFile for directory nodes. The parent must
// already exist; ancestors are never created implicitly.
func (s *Server) CreateDirectory(ctx context.Context, p nspath.Path) (bool, error) {
	return s.create(ctx, p, true)
}

func (s *Server) create(ctx context.Context, p nspath.Path, dir bool) (bool, error) {
	if p.IsRoot() {
		return false, nil
	}
	if !s.ns.ParentExists(p) {
		return false, ErrNotFound
	}
	if s.ns.Known(p) {
		return false, nil
	}

	reg, err := s.reg.Choose()
	if err != nil {
		return false, ErrNoStorageAvailable
	}

	created, err := reg.Command.Create(ctx, p)
	if err != nil {
		s.ls.Error(logservice.LogEvent{Message: "remote create failed", Metadata: map[string]any{"path": p.String(), "command": reg.Command.Addr(), "error": err.Error()}})
		return false, err
	}
	if !created {
		return false, nil
	}

	if dir {
		err = s.ns.AddDirectory(p, reg.Data, reg.Command)
	} else {
		err = s.ns.AddFile(p, reg.Data, reg.Command)
	}
	if err != nil {
		return false, ErrNotFound
	}
	return true, nil
}

// Delete removes p everywhere: a remote delete is issued to every command
// stub registered for p, aborting on the first failure; only after all
// succeed is p removed from the namespace. Deleting the root is refused
// (reported as false, the storage side's answer).
func (s *Server) Delete(ctx context.Context, p nspath.Path) (bool, error) {
	if p.IsRoot() {
		return false, nil
	}

	stubs, err := s.ns.StubsForDelete(p)
	if err != nil {
		return false, ErrNotFound
	}

	for _, cmd := range stubs {
		deleted, err := cmd.Delete(ctx, p)
		if err != nil {
			s.ls.Error(logservice.LogEvent{Message: "remote delete failed", Metadata: map[string]any{"path": p.String(), "command": cmd.Addr(), "error": err.Error()}})
			return false, err
		}
		if !deleted {
			return false, nil
		}
	}

	if err := s.ns.Remove(p); err != nil {
		return false, ErrNotFound
	}
	return true, nil
}

// GetStorage returns one of the data stubs registered for p, chosen
// uniformly at random when several storage servers hold it.
func (s *Server) GetStorage(p nspath.Path) (storageapi.DataStub, error) {
	stubs, err := s.ns.GetStorage(p)
	if err != nil {
		return storageapi.DataStub{}, ErrNotFound
	}
	stub, err := registry.Route(stubs)
	if err != nil {
		return storageapi.DataStub{}, ErrNotFound
	}
	return stub, nil
}

// Register runs registration and reconciliation for one storage server:
// reject nil arguments and duplicate (data, command) pairs, add the
// server to the placement pool, then diff its offered paths against the
// namespace and return the delete list.
func (s *Server) Register(data storageapi.DataStub, command storageapi.CommandStub, paths []nspath.Path) ([]nspath.Path, error) {
	if data.Addr() == "" || command.Addr() == "" || paths == nil {
		return nil, ErrNilArgument
	}
	if _, ok := s.reg.Find(data, command); ok {
		return nil, ErrAlreadyRegistered
	}

	reg := s.reg.Add(data, command)
	deleteList := s.ns.Register(data, command, paths)

	s.ls.Info(logservice.LogEvent{Message: "storage server registered", Metadata: map[string]any{
		"id":      reg.ID.String(),
		"data":    data.Addr(),
		"command": command.Addr(),
		"offered": len(paths),
		"deleted": len(deleteList),
	}})
	return deleteList, nil
}

// Decommission removes a storage server from the placement pool. Stub
// lists already recorded in the namespace are left alone; clients routed
// to a dead stub observe a remote error and re-ask the naming server.
func (s *Server) Decommission(data storageapi.DataStub, command storageapi.CommandStub) {
	if reg, ok := s.reg.Find(data, command); ok {
		s.reg.Remove(reg.ID)
	}
}

var errUnknownMessage = errors.New("naming: unknown message type")
