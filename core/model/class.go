package model

import (
	"fmt"
	"strings"
)

// ClassKey identifies a class by subject code and course number.
type ClassKey struct {
	Subject string
	Number  string
}

// NewClassKey normalizes the subject to upper case.
func NewClassKey(subject, number string) ClassKey {
	return ClassKey{
		Subject: strings.ToUpper(strings.TrimSpace(subject)),
		Number:  strings.TrimSpace(number),
	}
}

// ParseClassKey parses "CS 225".
func ParseClassKey(s string) (ClassKey, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return ClassKey{}, fmt.Errorf("class key %q: expected \"SUBJ NUM\"", s)
	}
	return NewClassKey(fields[0], fields[1]), nil
}

func (k ClassKey) String() string { return k.Subject + " " + k.Number }

func (k ClassKey) IsZero() bool { return k.Subject == "" || k.Number == "" }

func (k ClassKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ClassKey) UnmarshalText(b []byte) error {
	v, err := ParseClassKey(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
