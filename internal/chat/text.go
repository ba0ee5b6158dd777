package chat

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxTextRunes   = 256
	MaxChannelName = 24
)

var (
	ErrEmptyText      = errors.New("message is empty")
	ErrTextTooLong    = errors.New("message too long")
	ErrInvalidChannel = errors.New("invalid channel name")
)

var folder = cases.Fold()

// NormalizeText trims s and converts it to NFC. Text longer than
// MaxTextRunes after normalization is rejected.
func NormalizeText(s string) (string, error) {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(s) > MaxTextRunes {
		return "", ErrTextTooLong
	}
	return s, nil
}

// NormalizeChannel case-folds name and checks it against [a-z0-9_-]{1,24}.
func NormalizeChannel(name string) (string, error) {
	name = folder.String(strings.TrimSpace(name))
	if name == "" || len(name) > MaxChannelName {
		return "", ErrInvalidChannel
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return "", ErrInvalidChannel
		}
	}
	return name, nil
}
