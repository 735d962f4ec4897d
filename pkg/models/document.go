package models

// SchemaVersion marks the current store document layout.
const SchemaVersion = 1

// Document is the root persisted object: every activity and reminder in
// one store, keyed by id, plus a schema marker for forward compatibility.
// It is rewritten whole on every mutation so the on-disk form is always
// a complete, self-consistent snapshot.
type Document struct {
	SchemaVersion int                  `json:"schemaVersion"`
	Activities    map[string]*Activity `json:"activities"`
	Reminders     map[string]*Reminder `json:"reminders"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument() *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Activities:    make(map[string]*Activity),
		Reminders:     make(map[string]*Reminder),
	}
}
