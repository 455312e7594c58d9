package services

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/opslift/upgctl/rds/dbs"
	"github.com/opslift/upgctl/rds/persist"
)

// ExtensionStore is the post-upgrade surface of the database.
type ExtensionStore interface {
	OutdatedExtensions() ([]dbs.Extension, error)
	UpdateExtensions() error
	Analyze() error
}

// MaintenanceStore is the pre-upgrade vacuum surface of the database.
type MaintenanceStore interface {
	VacuumFreeze() error
}

// RefreshExtensions brings every installed extension to the newest version
// the catalog offers, in one server-side transactional block rather than
// per-extension round trips. The set of updated extensions lands in the
// run log.
func RefreshExtensions(store ExtensionStore, logDir string, runStamp string) error {
	outdated, err := store.OutdatedExtensions()
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to inspect extension catalog: %s", err.Error()))
	}
	if len(outdated) == 0 {
		log.Info("all installed extensions are already at their latest version")
	} else {
		for _, ext := range outdated {
			log.Infof("updating extension %s from %s to %s", ext.Name, ext.Installed, ext.Available)
		}
		if err := persist.Save(logDir, "extension-updates-"+runStamp, outdated); err != nil {
			return err
		}
	}
	if err := store.UpdateExtensions(); err != nil {
		return err
	}
	log.Infof("extension refresh finished, %d extension(s) updated", len(outdated))
	return nil
}

// RebuildStatistics reruns ANALYZE across the database; the engine swap
// invalidates planner statistics.
func RebuildStatistics(store ExtensionStore) error {
	if err := store.Analyze(); err != nil {
		return err
	}
	log.Info("planner statistics rebuilt")
	return nil
}

// FreezeTuples front-loads the aggressive vacuum into the pre-upgrade
// phase. Freezing is I/O heavy and independent of the engine version, so
// running it early keeps it out of the upgrade outage window.
func FreezeTuples(store MaintenanceStore, logDir string, runStamp string) error {
	started := time.Now()
	if err := store.VacuumFreeze(); err != nil {
		return err
	}
	record := fmt.Sprintf("VACUUM FREEZE started %s, finished %s\n",
		started.Format(time.RFC3339),
		time.Now().Format(time.RFC3339),
	)
	if err := persist.SaveText(logDir, "vacuum-freeze-"+runStamp, record); err != nil {
		return err
	}
	log.Info("vacuum freeze completed")
	return nil
}
