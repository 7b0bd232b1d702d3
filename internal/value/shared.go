package value

import "errors"

// ErrDataRace is returned by a Cell operation that would violate the
// borrow discipline: a nested write while a read borrow is active.
var ErrDataRace = errors.New("data race: exclusive write attempted while a read borrow is active")

// SharedValue is a Value wrapping a mutable cell shared by multiple
// holders, used for closure capture and explicit
// `share` statements. Reads snapshot (clone) the contained value;
// writes require exclusive acquisition of the cell.
type SharedValue struct {
	cell *Cell
}

// Share wraps val in a fresh shared cell. If val is already Shared, the
// same handle is returned unchanged: two `share` operations on the same
// variable are idempotent.
func Share(val Value) SharedValue {
	if s, ok := val.(SharedValue); ok {
		return s
	}
	return SharedValue{cell: newCell(val)}
}

func (SharedValue) Kind() Kind { return KindShared }

// Clone shares the same cell (O(1)); it does not snapshot the contents.
func (v SharedValue) Clone() Value {
	return SharedValue{cell: v.cell}
}

func (v SharedValue) String() string {
	if v.cell == nil {
		return "()"
	}
	val, err := v.cell.Read()
	if err != nil {
		return "<locked>"
	}
	return val.String()
}

// Read snapshots (clones) the cell's current contents under a read borrow.
func (v SharedValue) Read() (Value, error) {
	return v.cell.Read()
}

// Write installs val as the cell's new contents under an exclusive borrow.
func (v SharedValue) Write(val Value) error {
	return v.cell.Write(val)
}

// Cell returns the underlying cell, e.g. so two SharedValues can be
// compared for identity.
func (v SharedValue) Cell() *Cell { return v.cell }
