package naming

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/arjunmenon/meridian/internal/logservice"
	"github.com/arjunmenon/meridian/internal/nspath"
	"github.com/arjunmenon/meridian/internal/rpc"
	"github.com/arjunmenon/meridian/internal/storageapi"
	"github.com/arjunmenon/meridian/internal/storageengine"
)

type nopLogService struct{}

func (nopLogService) Debug(logservice.LogEvent) {}
func (nopLogService) Info(logservice.LogEvent)  {}
func (nopLogService) Warn(logservice.LogEvent)  {}
func (nopLogService) Error(logservice.LogEvent) {}

// testStorage is one storage server running in-process: a real engine in
// a temp dir behind two live HTTP endpoints.
type testStorage struct {
	engine      *storageengine.Engine
	dataAddr    string
	commandAddr string
}

func startStorage(t *testing.T, seedFiles ...string) *testStorage {
	t.Helper()

	engine, err := storageengine.New(t.TempDir(), nopLogService{})
	if err != nil {
		t.Fatalf("storageengine.New() error = %v", err)
	}
	for _, f := range seedFiles {
		if !engine.Create(nspath.MustNew(f)) {
			t.Fatalf("seeding %s failed", f)
		}
	}

	handler := storageapi.NewServer(engine, nopLogService{}).Handler

	storageComm := rpc.NewHTTPCommunicator("127.0.0.1:0", nopLogService{})
	if err := storageComm.Start(handler); err != nil {
		t.Fatalf("start storage endpoint: %v", err)
	}
	t.Cleanup(func() { storageComm.Stop() })

	commandComm := rpc.NewHTTPCommunicator("127.0.0.1:0", nopLogService{})
	if err := commandComm.Start(handler); err != nil {
		t.Fatalf("start command endpoint: %v", err)
	}
	t.Cleanup(func() { commandComm.Stop() })

	return &testStorage{
		engine:      engine,
		dataAddr:    storageComm.Address(),
		commandAddr: commandComm.Address(),
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	serviceComm := rpc.NewHTTPCommunicator("127.0.0.1:0", nopLogService{})
	registrationComm := rpc.NewHTTPCommunicator("127.0.0.1:0", nopLogService{})
	s := NewServer(serviceComm, registrationComm, nopLogService{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func (s *Server) mustRegister(t *testing.T, st *testStorage) {
	t.Helper()
	paths, err := st.engine.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	data := storageapi.NewDataStub(s.serviceComm, st.dataAddr)
	command := storageapi.NewCommandStub(s.serviceComm, st.commandAddr)
	deleteList, err := s.Register(data, command, paths)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	st.engine.Prune(deleteList)
}

func TestRegisterFirstServer(t *testing.T) {
	s := newTestServer(t)
	st := startStorage(t, "/a/b.txt", "/c/d.txt")

	paths, _ := st.engine.Scan()
	data := storageapi.NewDataStub(s.serviceComm, st.dataAddr)
	command := storageapi.NewCommandStub(s.serviceComm, st.commandAddr)
	deleteList, err := s.Register(data, command, paths)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(deleteList) != 0 {
		t.Errorf("Register() delete list = %v, want empty", deleteList)
	}

	names, err := s.List(nspath.Root)
	if err != nil {
		t.Fatalf("List(/) error = %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Errorf("List(/) = %v, want [a c]", names)
	}

	names, err = s.List(nspath.MustNew("/a"))
	if err != nil {
		t.Fatalf("List(/a) error = %v", err)
	}
	if len(names) != 1 || names[0] != "b.txt" {
		t.Errorf("List(/a) = %v, want [b.txt]", names)
	}

	isDir, err := s.IsDirectory(nspath.MustNew("/a/b.txt"))
	if err != nil || isDir {
		t.Errorf("IsDirectory(/a/b.txt) = %v, %v, want false, nil", isDir, err)
	}
}

func TestRegisterSecondServerGetsDeleteListAndPrunes(t *testing.T) {
	s := newTestServer(t)
	first := startStorage(t, "/a/b.txt", "/c/d.txt")
	s.mustRegister(t, first)

	second := startStorage(t, "/a/b.txt", "/e.txt")
	paths, _ := second.engine.Scan()
	data := storageapi.NewDataStub(s.serviceComm, second.dataAddr)
	command := storageapi.NewCommandStub(s.serviceComm, second.commandAddr)
	deleteList, err := s.Register(data, command, paths)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(deleteList) != 1 || !deleteList[0].Equal(nspath.MustNew("/a/b.txt")) {
		t.Fatalf("Register() delete list = %v, want [/a/b.txt]", deleteList)
	}

	second.engine.Prune(deleteList)
	if _, err := os.Stat(filepath.Join(second.engine.Root(), "a")); !os.IsNotExist(err) {
		t.Error("prune left /a behind on the second server")
	}

	names, err := s.List(nspath.Root)
	if err != nil {
		t.Fatalf("List(/) error = %v", err)
	}
	sort.Strings(names)
	want := []string{"a", "c", "e.txt"}
	if len(names) != len(want) {
		t.Fatalf("List(/) = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("List(/) = %v, want %v", names, want)
		}
	}

	stub, err := s.GetStorage(nspath.MustNew("/e.txt"))
	if err != nil {
		t.Fatalf("GetStorage(/e.txt) error = %v", err)
	}
	if stub.Addr() != second.dataAddr {
		t.Errorf("GetStorage(/e.txt) = %s, want the second server %s", stub.Addr(), second.dataAddr)
	}
}

func TestCreateFilePlacesOnChosenServer(t *testing.T) {
	s := newTestServer(t)
	first := startStorage(t, "/a/b.txt")
	s.mustRegister(t, first)
	second := startStorage(t)
	s.mustRegister(t, second)

	created, err := s.CreateFile(context.Background(), nspath.MustNew("/a/new.txt"))
	if err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if !created {
		t.Fatal("CreateFile() = false, want true")
	}

	// Equal capacity hints tie-break to the first registered server, so
	// the file must land there and only there.
	if _, err := os.Stat(filepath.Join(first.engine.Root(), "a", "new.txt")); err != nil {
		t.Error("created file missing on the chosen server")
	}
	if _, err := os.Stat(filepath.Join(second.engine.Root(), "a", "new.txt")); !os.IsNotExist(err) {
		t.Error("created file present on an unchosen server")
	}

	names, err := s.List(nspath.MustNew("/a"))
	if err != nil {
		t.Fatalf("List(/a) error = %v", err)
	}
	found := false
	for _, n := range names {
		if n == "new.txt" {
			found = true
		}
	}
	if !found {
		t.Errorf("List(/a) = %v, want it to include new.txt", names)
	}
}

func TestCreateFileExistingPathReturnsFalse(t *testing.T) {
	s := newTestServer(t)
	st := startStorage(t, "/a/b.txt")
	s.mustRegister(t, st)

	created, err := s.CreateFile(context.Background(), nspath.MustNew("/a/b.txt"))
	if err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if created {
		t.Error("CreateFile() on existing path = true, want false")
	}
}

func TestCreateFileMissingParentFailsWithoutRemoteCall(t *testing.T) {
	s := newTestServer(t)

	// No storage server registered at all: a parent check that passes
	// would surface ErrNoStorageAvailable, so seeing ErrNotFound proves
	// the walk stopped before placement.
	_, err := s.CreateFile(context.Background(), nspath.MustNew("/does/not/exist/x"))
	if err != ErrNotFound {
		t.Errorf("CreateFile() error = %v, want %v", err, ErrNotFound)
	}
}

func TestCreateFileNoStorageAvailable(t *testing.T) {
	s := newTestServer(t)

	_, err := s.CreateFile(context.Background(), nspath.MustNew("/x"))
	if err != ErrNoStorageAvailable {
		t.Errorf("CreateFile() error = %v, want %v", err, ErrNoStorageAvailable)
	}
}

func TestCreateDirectoryRequiresParent(t *testing.T) {
	s := newTestServer(t)
	st := startStorage(t)
	s.mustRegister(t, st)

	if _, err := s.CreateDirectory(context.Background(), nspath.MustNew("/x/y")); err != ErrNotFound {
		t.Fatalf("CreateDirectory(/x/y) error = %v, want %v", err, ErrNotFound)
	}

	created, err := s.CreateDirectory(context.Background(), nspath.MustNew("/x"))
	if err != nil || !created {
		t.Fatalf("CreateDirectory(/x) = %v, %v, want true, nil", created, err)
	}
	created, err = s.CreateDirectory(context.Background(), nspath.MustNew("/x/y"))
	if err != nil || !created {
		t.Fatalf("CreateDirectory(/x/y) after parent = %v, %v, want true, nil", created, err)
	}

	isDir, err := s.IsDirectory(nspath.MustNew("/x/y"))
	if err != nil || !isDir {
		t.Errorf("IsDirectory(/x/y) = %v, %v, want true, nil", isDir, err)
	}
}

func TestDeleteRemovesEverywhere(t *testing.T) {
	s := newTestServer(t)
	st := startStorage(t, "/a/b.txt")
	s.mustRegister(t, st)

	deleted, err := s.Delete(context.Background(), nspath.MustNew("/a"))
	if err != nil {
		t.Fatalf("Delete(/a) error = %v", err)
	}
	if !deleted {
		t.Fatal("Delete(/a) = false, want true")
	}

	if _, err := os.Stat(filepath.Join(st.engine.Root(), "a")); !os.IsNotExist(err) {
		t.Error("Delete(/a) left the directory on disk")
	}
	if _, err := s.IsDirectory(nspath.MustNew("/a")); err != ErrNotFound {
		t.Errorf("IsDirectory(/a) after delete error = %v, want %v", err, ErrNotFound)
	}
	names, err := s.List(nspath.Root)
	if err != nil {
		t.Fatalf("List(/) error = %v", err)
	}
	for _, n := range names {
		if n == "a" {
			t.Errorf("List(/) after delete still contains a: %v", names)
		}
	}
}

func TestDeleteRootRefused(t *testing.T) {
	s := newTestServer(t)

	deleted, err := s.Delete(context.Background(), nspath.Root)
	if err != nil || deleted {
		t.Errorf("Delete(/) = %v, %v, want false, nil", deleted, err)
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	s := newTestServer(t)
	st := startStorage(t)
	s.mustRegister(t, st)

	data := storageapi.NewDataStub(s.serviceComm, st.dataAddr)
	command := storageapi.NewCommandStub(s.serviceComm, st.commandAddr)
	if _, err := s.Register(data, command, []nspath.Path{}); err != ErrAlreadyRegistered {
		t.Errorf("second Register() error = %v, want %v", err, ErrAlreadyRegistered)
	}

	// The same data stub paired with a different command stub is a new
	// registration, not a duplicate.
	other := storageapi.NewCommandStub(s.serviceComm, "127.0.0.1:1")
	if _, err := s.Register(data, other, []nspath.Path{}); err != nil {
		t.Errorf("Register() with new command stub error = %v, want nil", err)
	}
}

func TestRegisterNilArguments(t *testing.T) {
	s := newTestServer(t)

	data := storageapi.NewDataStub(s.serviceComm, "127.0.0.1:1")
	command := storageapi.NewCommandStub(s.serviceComm, "127.0.0.1:2")

	if _, err := s.Register(storageapi.DataStub{}, command, []nspath.Path{}); err != ErrNilArgument {
		t.Errorf("Register() with zero data stub error = %v, want %v", err, ErrNilArgument)
	}
	if _, err := s.Register(data, storageapi.CommandStub{}, []nspath.Path{}); err != ErrNilArgument {
		t.Errorf("Register() with zero command stub error = %v, want %v", err, ErrNilArgument)
	}
	if _, err := s.Register(data, command, nil); err != ErrNilArgument {
		t.Errorf("Register() with nil paths error = %v, want %v", err, ErrNilArgument)
	}
}

func TestLifecycle(t *testing.T) {
	serviceComm := rpc.NewHTTPCommunicator("127.0.0.1:0", nopLogService{})
	registrationComm := rpc.NewHTTPCommunicator("127.0.0.1:0", nopLogService{})
	s := NewServer(serviceComm, registrationComm, nopLogService{})

	var stopCause error
	stopCalled := false
	s.OnStopped = func(err error) {
		stopCalled = true
		stopCause = err
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start() error = %v, want %v", err, ErrAlreadyStarted)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if !stopCalled || stopCause != nil {
		t.Errorf("OnStopped called=%v cause=%v, want true, nil", stopCalled, stopCause)
	}
	if err := s.Start(); err != ErrNotRestartable {
		t.Errorf("Start() after Stop() error = %v, want %v", err, ErrNotRestartable)
	}
	if err := s.Stop(); err != ErrNotRunning {
		t.Errorf("second Stop() error = %v, want %v", err, ErrNotRunning)
	}
}

// TestEndToEndOverRPC drives the whole system through the wire surfaces
// only: registration stub, service stub, and data stub, no direct access
// to server internals.
func TestEndToEndOverRPC(t *testing.T) {
	s := newTestServer(t)
	st := startStorage(t, "/docs/readme.md")
	ctx := context.Background()

	clientComm := rpc.NewHTTPCommunicator("127.0.0.1:0", nopLogService{})

	regStub := NewRegistrationStub(clientComm, s.RegistrationAddress())
	paths, _ := st.engine.Scan()
	deleteList, err := regStub.Register(ctx, st.dataAddr, st.commandAddr, paths)
	if err != nil {
		t.Fatalf("Register() over RPC error = %v", err)
	}
	st.engine.Prune(deleteList)

	svc := NewServiceStub(clientComm, s.ServiceAddress())

	isDir, err := svc.IsDirectory(ctx, nspath.MustNew("/docs"))
	if err != nil || !isDir {
		t.Fatalf("IsDirectory(/docs) = %v, %v, want true, nil", isDir, err)
	}

	created, err := svc.CreateFile(ctx, nspath.MustNew("/docs/notes.txt"))
	if err != nil || !created {
		t.Fatalf("CreateFile(/docs/notes.txt) = %v, %v, want true, nil", created, err)
	}

	data, err := svc.GetStorage(ctx, nspath.MustNew("/docs/notes.txt"))
	if err != nil {
		t.Fatalf("GetStorage() error = %v", err)
	}

	if err := data.Write(ctx, nspath.MustNew("/docs/notes.txt"), 0, []byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	size, err := data.Size(ctx, nspath.MustNew("/docs/notes.txt"))
	if err != nil || size != 5 {
		t.Fatalf("Size() = %d, %v, want 5, nil", size, err)
	}
	got, err := data.Read(ctx, nspath.MustNew("/docs/notes.txt"), 0, 5)
	if err != nil || string(got) != "hello" {
		t.Fatalf("Read() = %q, %v, want hello, nil", got, err)
	}

	deleted, err := svc.Delete(ctx, nspath.MustNew("/docs/notes.txt"))
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v, %v, want true, nil", deleted, err)
	}
	if _, err := svc.GetStorage(ctx, nspath.MustNew("/docs/notes.txt")); err != ErrNotFound {
		t.Errorf("GetStorage() after delete error = %v, want %v", err, ErrNotFound)
	}

	if _, err := regStub.Register(ctx, st.dataAddr, st.commandAddr, nil); err != ErrNilArgument {
		t.Errorf("Register(nil paths) over RPC error = %v, want %v", err, ErrNilArgument)
	}
	if _, err := regStub.Register(ctx, st.dataAddr, st.commandAddr, []nspath.Path{}); err != ErrAlreadyRegistered {
		t.Errorf("duplicate Register() over RPC error = %v, want %v", err, ErrAlreadyRegistered)
	}
}
