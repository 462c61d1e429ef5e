package grid

import (
	"fmt"
)

// Address is a 0-based (column, row) cell position. Its external form is the
// four-digit string CCRR holding the 1-based column and row.
type Address struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// ParseAddress decodes a CCRR string. It only checks the format; use
// Spec.Contains or ColorGrid.Lookup for bounds.
func ParseAddress(s string) (Address, error) {
	if len(s) != 4 {
		return Address{}, fmt.Errorf("%w: %q must be 4 digits", ErrInvalidAddress, s)
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return Address{}, fmt.Errorf("%w: %q must be 4 digits", ErrInvalidAddress, s)
		}
	}
	col := int(s[0]-'0')*10 + int(s[1]-'0')
	row := int(s[2]-'0')*10 + int(s[3]-'0')
	return Address{Col: col - 1, Row: row - 1}, nil
}

// String encodes the address as CCRR.
func (a Address) String() string {
	return fmt.Sprintf("%02d%02d", a.Col+1, a.Row+1)
}

// Resolve parses s and checks it against the grid size.
func (s Spec) Resolve(addr string) (Address, error) {
	a, err := ParseAddress(addr)
	if err != nil {
		return Address{}, err
	}
	if !s.Contains(a) {
		return Address{}, fmt.Errorf("%w: %s (col %d, row %d) on a %s grid", ErrAddressOutOfRange, addr, a.Col+1, a.Row+1, s)
	}
	return a, nil
}
