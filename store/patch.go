package store

import "encoding/json"

// Field wraps a patch value so that a field omitted from the payload is
// distinguishable from one explicitly set to its current value.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Field carrying v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// UnmarshalJSON marks the field present whenever the key appears in the
// payload, including an explicit null for pointer-typed fields.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Set = true
	return nil
}

// UpdatePatch is a partial-field update of a downtime entry. Times arrive
// as strings so the store owns the datetime validation, the same as on
// create. EnteredBy, CreatedDate and IsDeleted are not patchable.
type UpdatePatch struct {
	LineID      Field[uint]   `json:"line_id"`
	CategoryID  Field[uint]   `json:"category_id"`
	ShiftID     Field[*uint]  `json:"shift_id"`
	StartTime   Field[string] `json:"start_time"`
	EndTime     Field[string] `json:"end_time"`
	CrewSize    Field[int]    `json:"crew_size"`
	ReasonNotes Field[string] `json:"reason_notes"`
}

// FieldChange is one before/after pair in a change diff.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeSet maps field names to their staged changes. It is handed to the
// audit logger by the caller after a successful update.
type ChangeSet map[string]FieldChange
