package account

//go:generate go tool mockgen -destination=mocks/store_mock.go -package=mocks . Store

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

var (
	ErrNameTaken          = errors.New("name already taken")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrNoSuchAccount      = errors.New("no such account")
	ErrNoSuchCharacter    = errors.New("no such character")
)

const (
	minNameLen = 3
	maxNameLen = 16
)

// Account is a login identity owning any number of characters.
type Account struct {
	ID         uint64
	Name       string
	Characters []CharacterRef
}

// CharacterRef points at one save slot on disk.
type CharacterRef struct {
	ID    uuid.UUID
	Name  string
	Class string
	Level uint32
}

// Character returns the save slot with the given id.
func (a *Account) Character(id uuid.UUID) (CharacterRef, bool) {
	for _, c := range a.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return CharacterRef{}, false
}

// Store is the account service. The in-memory store backs tests and
// database-less runs; persist.AccountRepo backs production.
type Store interface {
	Create(ctx context.Context, name, password string) (*Account, error)
	Login(ctx context.Context, name, password string) (*Account, error)
	AddCharacter(ctx context.Context, accountID uint64, ref CharacterRef) error
	Characters(ctx context.Context, accountID uint64) ([]CharacterRef, error)
	// UpdateLevel refreshes the level shown in character lists.
	UpdateLevel(ctx context.Context, ref CharacterRef) error
}

var folder = cases.Fold()

// NormalizeName case-folds an account or character name and checks it is
// 3 to 16 letters or digits.
func NormalizeName(name string) (string, error) {
	name = folder.String(strings.TrimSpace(name))
	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return "", ErrInvalidName
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", ErrInvalidName
		}
	}
	return name, nil
}
