package models

import "strings"

// LabelSeparator joins account names inside a merged label cell.
const LabelSeparator = "+"

// AccountLabel is the ordered set of accounts a tracked item has been seen under, first-seen first.
//
// It is stored in the sheet as the names joined by "+".
type AccountLabel struct {
	names []string
}

// NewAccountLabel builds a label from names, dropping blanks and repeats.
func NewAccountLabel(names ...string) AccountLabel {
	var l AccountLabel
	for _, n := range names {
		l = l.Add(n)
	}
	return l
}

// ParseAccountLabel reads a label cell such as "Sulpak+ARG".
func ParseAccountLabel(cell string) AccountLabel {
	if strings.TrimSpace(cell) == "" {
		return AccountLabel{}
	}
	return NewAccountLabel(strings.Split(cell, LabelSeparator)...)
}

// String serializes the label for the sheet.
func (l AccountLabel) String() string {
	return strings.Join(l.names, LabelSeparator)
}

// Names returns a copy of the account names in order.
func (l AccountLabel) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of accounts in the label.
func (l AccountLabel) Len() int { return len(l.names) }

// Empty reports whether the label names no account.
func (l AccountLabel) Empty() bool { return len(l.names) == 0 }

// Has reports whether name is one of the label's accounts.
func (l AccountLabel) Has(name string) bool {
	name = strings.TrimSpace(name)
	for _, n := range l.names {
		if n == name {
			return true
		}
	}
	return false
}

// Is reports whether the label is exactly the single account name.
func (l AccountLabel) Is(name string) bool {
	return len(l.names) == 1 && l.names[0] == strings.TrimSpace(name)
}

// Add returns the label with name appended, or the label unchanged when name is blank or already present.
func (l AccountLabel) Add(name string) AccountLabel {
	name = strings.TrimSpace(name)
	if name == "" || l.Has(name) {
		return l
	}
	names := make([]string, len(l.names), len(l.names)+1)
	copy(names, l.names)
	return AccountLabel{names: append(names, name)}
}

// Equal compares two labels including order.
func (l AccountLabel) Equal(other AccountLabel) bool {
	if len(l.names) != len(other.names) {
		return false
	}
	for i := range l.names {
		if l.names[i] != other.names[i] {
			return false
		}
	}
	return true
}
