package registry

import (
	"testing"

	"github.com/arjunmenon/meridian/internal/storageapi"
)

func TestChooseEmptyRegistry(t *testing.T) {
	r := New()
	if _, err := r.Choose(); err != ErrNoStorageAvailable {
		t.Errorf("Choose() error = %v, want %v", err, ErrNoStorageAvailable)
	}
}

func TestChoosePicksLargestCapacity(t *testing.T) {
	r := New()
	regA := r.Add(storageapi.NewDataStub(nil, "a:1"), storageapi.NewCommandStub(nil, "a:2"))
	regB := r.Add(storageapi.NewDataStub(nil, "b:1"), storageapi.NewCommandStub(nil, "b:2"))
	regA.Capacity = 10
	regB.Capacity = 50

	chosen, err := r.Choose()
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if chosen.ID != regB.ID {
		t.Errorf("Choose() picked %v, want the larger-capacity registration", chosen.ID)
	}
}

func TestChooseTieBreaksToFirstRegistered(t *testing.T) {
	r := New()
	regA := r.Add(storageapi.NewDataStub(nil, "a:1"), storageapi.NewCommandStub(nil, "a:2"))
	r.Add(storageapi.NewDataStub(nil, "b:1"), storageapi.NewCommandStub(nil, "b:2"))

	chosen, err := r.Choose()
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if chosen.ID != regA.ID {
		t.Errorf("Choose() with tied capacities picked %v, want first-registered %v", chosen.ID, regA.ID)
	}
}

func TestFindMatchesExactPairOnly(t *testing.T) {
	r := New()
	dataA := storageapi.NewDataStub(nil, "a:1")
	cmdA := storageapi.NewCommandStub(nil, "a:2")
	r.Add(dataA, cmdA)

	if _, ok := r.Find(dataA, cmdA); !ok {
		t.Error("Find() on exact pair = false, want true")
	}

	otherCmd := storageapi.NewCommandStub(nil, "c:2")
	if _, ok := r.Find(dataA, otherCmd); ok {
		t.Error("Find() matched on data stub alone, want false")
	}
}

func TestRemoveDecommissions(t *testing.T) {
	r := New()
	reg := r.Add(storageapi.NewDataStub(nil, "a:1"), storageapi.NewCommandStub(nil, "a:2"))
	r.Remove(reg.ID)

	if _, err := r.Choose(); err != ErrNoStorageAvailable {
		t.Errorf("Choose() after Remove() error = %v, want %v", err, ErrNoStorageAvailable)
	}
}

func TestRouteUniformSelection(t *testing.T) {
	stubs := []storageapi.DataStub{
		storageapi.NewDataStub(nil, "a:1"),
		storageapi.NewDataStub(nil, "b:1"),
	}

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := Route(stubs)
		if err != nil {
			t.Fatalf("Route() error = %v", err)
		}
		seen[s.Addr()] = true
	}
	if len(seen) != 2 {
		t.Errorf("Route() over 50 draws saw %d distinct stubs, want 2", len(seen))
	}

	if _, err := Route(nil); err != ErrNoStorageAvailable {
		t.Errorf("Route(nil) error = %v, want %v", err, ErrNoStorageAvailable)
	}
}
