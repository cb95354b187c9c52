package card

import "strings"

type List []Card

// Clone returns an independent copy; a nil list stays nil.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

func (l List) Count() int {
	return len(l)
}

func (l List) Equal(other List) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the list in short form, e.g. "As Td".
func (l List) String() string {
	parts := make([]string, 0, len(l))
	for _, c := range l {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}
