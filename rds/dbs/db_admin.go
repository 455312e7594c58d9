package dbs

import (
	"fmt"
)

// updateExtensionsBlock walks the extension catalog server side and brings
// every installed extension to its newest available version in a single
// transactional round trip. Extensions already at their latest version are
// skipped; a summary NOTICE is raised when nothing needed an update.
const updateExtensionsBlock = `
DO $$
DECLARE
    ext record;
    updated integer := 0;
BEGIN
    FOR ext IN
        SELECT name, installed_version, default_version
        FROM pg_available_extensions
        WHERE installed_version IS NOT NULL
          AND installed_version <> default_version
    LOOP
        EXECUTE format('ALTER EXTENSION %I UPDATE', ext.name);
        RAISE NOTICE 'updated extension % from % to %', ext.name, ext.installed_version, ext.default_version;
        updated := updated + 1;
    END LOOP;
    IF updated = 0 THEN
        RAISE NOTICE 'no installed extension required an update';
    END IF;
END
$$;`

// ListReplicationSlots returns every logical replication slot currently
// defined on the instance.
func (db *DB) ListReplicationSlots() ([]ReplicationSlot, error) {
	rows, err := db.Query("SELECT slot_name, plugin, active FROM pg_replication_slots;")
	if err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("failed to query pg_replication_slots: %s", err.Error()))
	}
	defer rows.Close()

	var slots []ReplicationSlot
	for rows.Next() {
		var slot ReplicationSlot
		if err := rows.Scan(&slot.Name, &slot.Plugin, &slot.Active); err != nil {
			return nil, fmt.Errorf(fmt.Sprintf("error when scanning replication slot row: %s", err.Error()))
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("error when iterating replication slot rows: %s", err.Error()))
	}
	return slots, nil
}

// DropReplicationSlots drops every replication slot on the instance.
func (db *DB) DropReplicationSlots() error {
	if _, err := db.Exec("SELECT pg_drop_replication_slot(slot_name) FROM pg_replication_slots;"); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to drop replication slots: %s", err.Error()))
	}
	return nil
}

// OutdatedExtensions lists installed extensions whose catalog default is
// newer than the installed version.
func (db *DB) OutdatedExtensions() ([]Extension, error) {
	rows, err := db.Query(`SELECT name, installed_version, default_version
FROM pg_available_extensions
WHERE installed_version IS NOT NULL
  AND installed_version <> default_version;`)
	if err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("failed to query pg_available_extensions: %s", err.Error()))
	}
	defer rows.Close()

	var exts []Extension
	for rows.Next() {
		var ext Extension
		if err := rows.Scan(&ext.Name, &ext.Installed, &ext.Available); err != nil {
			return nil, fmt.Errorf(fmt.Sprintf("error when scanning extension row: %s", err.Error()))
		}
		exts = append(exts, ext)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("error when iterating extension rows: %s", err.Error()))
	}
	return exts, nil
}

// UpdateExtensions runs the transactional catalog walk that updates every
// installed extension to its latest available version.
func (db *DB) UpdateExtensions() error {
	if _, err := db.Exec(updateExtensionsBlock); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to update extensions: %s", err.Error()))
	}
	return nil
}

// VacuumFreeze rewrites row visibility metadata across the whole database
// to bound transaction-id wraparound risk ahead of the engine swap.
func (db *DB) VacuumFreeze() error {
	if _, err := db.Exec("VACUUM FREEZE;"); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to run VACUUM FREEZE: %s", err.Error()))
	}
	return nil
}

// Analyze rebuilds planner statistics for the whole database.
func (db *DB) Analyze() error {
	if _, err := db.Exec("ANALYZE;"); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to run ANALYZE: %s", err.Error()))
	}
	return nil
}
