package roster

// Location is an opaque location identifier returned by the directory.
type Location string

// Record is a single name/location entry. Records are never mutated after
// they are added to a Roster.
type Record struct {
	Name     string
	Location Location
}

// Roster is the ordered list of accumulated records.
// The zero value is an empty roster ready for use.
type Roster struct {
	records []Record
}

// Add appends a record. Duplicates are allowed.
func (r *Roster) Add(rec Record) {
	r.records = append(r.records, rec)
}

// Clear removes every record. Clearing an empty roster is a no-op.
func (r *Roster) Clear() {
	r.records = nil
}

// Len returns the number of records.
func (r *Roster) Len() int {
	return len(r.records)
}

// Records returns a copy of the records in insertion order.
func (r *Roster) Records() []Record {
	if len(r.records) == 0 {
		return nil
	}
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}
