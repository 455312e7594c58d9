package services

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"github.com/opslift/upgctl/rds/dbs"
)

type fakeSlotStore struct {
	Slots     []dbs.ReplicationSlot
	AfterDrop []dbs.ReplicationSlot
	DropErr   error
	Dropped   bool
	ListCalls int
}

func (f *fakeSlotStore) ListReplicationSlots() ([]dbs.ReplicationSlot, error) {
	f.ListCalls++
	if f.Dropped {
		return f.AfterDrop, nil
	}
	return f.Slots, nil
}

func (f *fakeSlotStore) DropReplicationSlots() error {
	if f.DropErr != nil {
		return f.DropErr
	}
	f.Dropped = true
	return nil
}

func slotTestDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "upgctl")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestGuardReplicationSlotsNoneFound(t *testing.T) {
	dir := slotTestDir(t)
	defer os.RemoveAll(dir)

	store := &fakeSlotStore{}
	remaining, err := GuardReplicationSlots(store, dir, "20240101-000000", false)
	if err != nil {
		t.Fatalf("unexpected error, %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining slots, got %d", remaining)
	}
}

func TestGuardReplicationSlotsReportOnly(t *testing.T) {
	dir := slotTestDir(t)
	defer os.RemoveAll(dir)

	store := &fakeSlotStore{
		Slots: []dbs.ReplicationSlot{
			{Name: "debezium", Plugin: "pgoutput", Active: true},
		},
	}
	remaining, err := GuardReplicationSlots(store, dir, "20240101-000000", false)
	if err != nil {
		t.Fatalf("report-only mode must not error, got %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining slot, got %d", remaining)
	}
	if store.Dropped {
		t.Fatal("slots must be left in place when auto-drop is off")
	}
	if _, err := os.Stat(dir + "/replication-slots-20240101-000000"); err != nil {
		t.Fatalf("expected the slot details on disk, %v", err)
	}
}

func TestGuardReplicationSlotsAutoDrop(t *testing.T) {
	dir := slotTestDir(t)
	defer os.RemoveAll(dir)

	store := &fakeSlotStore{
		Slots: []dbs.ReplicationSlot{
			{Name: "debezium", Plugin: "pgoutput"},
			{Name: "etl", Plugin: "wal2json"},
		},
	}
	remaining, err := GuardReplicationSlots(store, dir, "20240101-000000", true)
	if err != nil {
		t.Fatalf("unexpected error, %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining slots after drop, got %d", remaining)
	}
	if store.ListCalls != 2 {
		t.Fatalf("expected a re-query after the drop, got %d list calls", store.ListCalls)
	}
}

func TestGuardReplicationSlotsSurvivorsFatal(t *testing.T) {
	dir := slotTestDir(t)
	defer os.RemoveAll(dir)

	store := &fakeSlotStore{
		Slots: []dbs.ReplicationSlot{
			{Name: "debezium", Plugin: "pgoutput", Active: true},
		},
		AfterDrop: []dbs.ReplicationSlot{
			{Name: "debezium", Plugin: "pgoutput", Active: true},
		},
	}
	if _, err := GuardReplicationSlots(store, dir, "20240101-000000", true); err == nil {
		t.Fatal("expected surviving slots to be fatal")
	}
}

func TestGuardReplicationSlotsDropFailure(t *testing.T) {
	dir := slotTestDir(t)
	defer os.RemoveAll(dir)

	store := &fakeSlotStore{
		Slots:   []dbs.ReplicationSlot{{Name: "debezium", Plugin: "pgoutput"}},
		DropErr: errors.New("slot is active"),
	}
	if _, err := GuardReplicationSlots(store, dir, "20240101-000000", true); err == nil {
		t.Fatal("expected drop failure to propagate")
	}
}
