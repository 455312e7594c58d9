package services

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/opslift/upgctl/rds/dbs"
	"github.com/opslift/upgctl/rds/persist"
)

// SlotStore is the replication slot surface of the database the guard
// operates on.
type SlotStore interface {
	ListReplicationSlots() ([]dbs.ReplicationSlot, error)
	DropReplicationSlots() error
}

// GuardReplicationSlots enforces the major-upgrade precondition that no
// logical replication slots exist. Found slots are recorded to the run log
// in every mode. With autoDrop off the slots are left in place and their
// count is returned so the caller decides whether that blocks the phase.
// With autoDrop on every slot is dropped and the count is re-checked;
// survivors are an error because the engine swap needs clean physical
// replication state.
func GuardReplicationSlots(store SlotStore, logDir string, runStamp string, autoDrop bool) (int, error) {
	slots, err := store.ListReplicationSlots()
	if err != nil {
		return 0, fmt.Errorf(fmt.Sprintf("failed to query replication slots: %s", err.Error()))
	}
	if len(slots) == 0 {
		log.Info("no replication slots found")
		return 0, nil
	}

	if err := persist.Save(logDir, "replication-slots-"+runStamp, slots); err != nil {
		return len(slots), err
	}
	for _, slot := range slots {
		log.Warnf("replication slot %s (plugin %s, active %t) present on the instance", slot.Name, slot.Plugin, slot.Active)
	}

	if !autoDrop {
		return len(slots), nil
	}

	log.Infof("dropping %d replication slot(s)", len(slots))
	if err := store.DropReplicationSlots(); err != nil {
		return len(slots), fmt.Errorf(fmt.Sprintf("failed to drop replication slots: %s", err.Error()))
	}
	remaining, err := store.ListReplicationSlots()
	if err != nil {
		return len(slots), fmt.Errorf(fmt.Sprintf("failed to re-query replication slots after drop: %s", err.Error()))
	}
	if len(remaining) != 0 {
		return len(remaining), fmt.Errorf(fmt.Sprintf("%d replication slot(s) survived the drop, the upgrade cannot proceed", len(remaining)))
	}
	log.Info("all replication slots dropped")
	return 0, nil
}
