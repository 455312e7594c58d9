package dbs

// ReplicationSlot mirrors one row of pg_replication_slots.
type ReplicationSlot struct {
	Name   string `json:"slot_name"`
	Plugin string `json:"plugin"`
	Active bool   `json:"active"`
}

// Extension describes an installed extension that has a newer version
// available in the server's extension catalog.
type Extension struct {
	Name      string `json:"name"`
	Installed string `json:"installed_version"`
	Available string `json:"available_version"`
}
