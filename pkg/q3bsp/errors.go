package q3bsp

import "fmt"

// FormatError is returned for files that are not IBSP version 46 or whose
// lumps don't hold a whole number of records.
type FormatError struct {
	Reason string
}

func (e FormatError) Error() string {
	return "invalid bsp format: " + e.Reason
}

// OutOfRangeError is returned when a lump reaches past the end of the buffer.
type OutOfRangeError struct {
	Lump   string
	Offset uint64
	Length uint64
	Size   int
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("lump %s [%d, %d) exceeds buffer of %d bytes",
		e.Lump, e.Offset, e.Offset+e.Length, e.Size)
}

// IntegrityError is returned when a record references an index that does
// not exist.
type IntegrityError struct {
	Record string
	Index  int
	Field  string
	Value  int64
	Limit  int
}

func (e IntegrityError) Error() string {
	return fmt.Sprintf("%s %d: %s %d out of range [0, %d)",
		e.Record, e.Index, e.Field, e.Value, e.Limit)
}
