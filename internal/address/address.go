// Package address parses the IPv4 addresses typed in by the operator.
package address

import (
	"fmt"
	"net/netip"
	"strings"
)

// ParseError is returned for text that is not a dotted IPv4 address.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid IPv4 address %q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse accepts a dotted IPv4 address such as "192.168.55.47".
func Parse(text string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(text))
	if err != nil {
		return netip.Addr{}, &ParseError{Text: text, Err: err}
	}
	if !addr.Is4() {
		return netip.Addr{}, &ParseError{Text: text, Err: fmt.Errorf("not an IPv4 address")}
	}
	return addr, nil
}

// Field is the operator's address input. On a bad value the error message
// takes the place of the typed text, which is the only feedback given.
type Field struct {
	Text string
}

func NewField(initial string) *Field {
	return &Field{Text: initial}
}

// Resolve parses the field.
func (f *Field) Resolve() (netip.Addr, error) {
	addr, err := Parse(f.Text)
	if err != nil {
		f.Text = err.Error()
		return netip.Addr{}, err
	}
	return addr, nil
}
