package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("customer not found")

// Source loads the full record set. Implementations are read on every lookup;
// nothing is cached between calls.
type Source interface {
	Load(ctx context.Context) ([]Customer, error)
}

// Directory resolves customers against a Source.
type Directory struct {
	src Source
}

func New(src Source) *Directory {
	return &Directory{src: src}
}

// List returns every record in directory order.
func (d *Directory) List(ctx context.Context) ([]Customer, error) {
	records, err := d.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	return records, nil
}

func (d *Directory) FindByID(ctx context.Context, id string) (Customer, error) {
	records, err := d.List(ctx)
	if err != nil {
		return Customer{}, err
	}
	if c, ok := MatchID(records, id); ok {
		return c, nil
	}
	return Customer{}, fmt.Errorf("id %q: %w", id, ErrNotFound)
}

// FindByPhoneSuffix matches the trailing phone digits. Inputs longer than
// SuffixLen are cut to their last SuffixLen digits.
func (d *Directory) FindByPhoneSuffix(ctx context.Context, digits string) (Customer, error) {
	suffix := digitsOnly(strings.TrimSpace(digits))
	if len(suffix) < SuffixLen {
		return Customer{}, fmt.Errorf("phone suffix %q: %w", digits, ErrNotFound)
	}
	suffix = suffix[len(suffix)-SuffixLen:]
	records, err := d.List(ctx)
	if err != nil {
		return Customer{}, err
	}
	if c, ok := MatchPhoneSuffix(records, suffix); ok {
		return c, nil
	}
	return Customer{}, fmt.Errorf("phone suffix %q: %w", suffix, ErrNotFound)
}

// FindByUtterance resolves a spoken identification such as
// "my phone ends in nine eight seven six" or "this is Maria".
func (d *Directory) FindByUtterance(ctx context.Context, text string) (Customer, error) {
	records, err := d.List(ctx)
	if err != nil {
		return Customer{}, err
	}
	if c, ok := MatchUtterance(records, text); ok {
		return c, nil
	}
	return Customer{}, fmt.Errorf("utterance %q: %w", text, ErrNotFound)
}

// ValidSuffix reports whether digits carries at least SuffixLen digits.
func ValidSuffix(digits string) bool {
	return len(digitsOnly(digits)) >= SuffixLen
}
