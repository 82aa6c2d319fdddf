// Package strtab interns text into one contiguous byte table.
//
// The table becomes the head of the generated module's data segment, so
// entries are stable (offset, length) pairs relative to the table start.
package strtab

// Entry locates interned text inside the table.
type Entry struct {
	Offset uint32
	Len    uint32
}

// Table deduplicates text. The zero value is not usable; call New.
type Table struct {
	index map[string]Entry
	data  []byte
	order []string
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]Entry)}
}

// Intern returns the entry for s, appending it on first sight.
// The empty string always maps to {0, 0} and occupies no bytes.
func (t *Table) Intern(s string) Entry {
	if s == "" {
		return Entry{}
	}
	if e, ok := t.index[s]; ok {
		return e
	}
	e := Entry{Offset: uint32(len(t.data)), Len: uint32(len(s))}
	t.data = append(t.data, s...)
	t.index[s] = e
	t.order = append(t.order, s)
	return e
}

// Lookup returns the entry for s if it has been interned.
func (t *Table) Lookup(s string) (Entry, bool) {
	if s == "" {
		return Entry{}, true
	}
	e, ok := t.index[s]
	return e, ok
}

// Bytes returns the table contents. The slice must not be modified.
func (t *Table) Bytes() []byte {
	return t.data
}

// Len returns the table size in bytes.
func (t *Table) Len() uint32 {
	return uint32(len(t.data))
}

// Entries returns interned strings in first-seen order.
func (t *Table) Entries() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
