package bytecode

import "fmt"

// LineIndex maps bytecode offsets to source lines. Slot L holds the number
// of code bytes written while the current line was L.
//
// Lookups are only correct when lines are put in non-decreasing order:
// once a byte for line N is recorded, no byte for a line below N may
// follow. Per-line totals stay right when the order is broken, but the
// offset answers do not.
type LineIndex []int

// Put records one more code byte on line. Lines are never negative; Put
// panics on a negative line.
func (li *LineIndex) Put(line int) {
	if line < 0 {
		panic(fmt.Sprintf("negative source line %d", line))
	}
	if line >= len(*li) {
		*li = append(*li, make([]int, line+1-len(*li))...)
	}
	(*li)[line]++
}

// Get returns the line that owns the code byte at offset, or -1 when the
// offset lies past every recorded byte.
func (li LineIndex) Get(offset int) int {
	if offset < 0 {
		return -1
	}
	total := 0
	for line, count := range li {
		total += count
		if total > offset {
			return line
		}
	}
	return -1
}

// Total is the number of code bytes recorded.
func (li LineIndex) Total() int {
	total := 0
	for _, count := range li {
		total += count
	}
	return total
}

// Reset drops all recorded lines.
func (li *LineIndex) Reset() {
	*li = (*li)[:0]
}
