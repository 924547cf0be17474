package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"
)

// ErrEmptyBook is returned by Random when the book holds no address.
var ErrEmptyBook = errors.New("address book is empty")

// Book groups the addresses known to the simulation.
type Book struct {
	mu        sync.RWMutex
	addresses []*Address
	rng       *rand.Rand
}

// NewBook creates an empty book. A nil rng is replaced by a time seeded one.
func NewBook(rng *rand.Rand) *Book {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Book{rng: rng}
}

// Add appends an address.
func (b *Book) Add(a *Address) error {
	if a == nil {
		return errors.New("nil address")
	}
	b.mu.Lock()
	b.addresses = append(b.addresses, a)
	b.mu.Unlock()
	return nil
}

// Create resolves a new address through r and adds it to the book.
func (b *Book) Create(ctx context.Context, r Resolver, street, city, country string) (*Address, error) {
	a, err := Create(ctx, r, street, city, country)
	if err != nil {
		return nil, err
	}
	if err := b.Add(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Random returns a uniformly chosen address.
func (b *Book) Random() (*Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.addresses) == 0 {
		return nil, ErrEmptyBook
	}
	return b.addresses[b.rng.Intn(len(b.addresses))], nil
}

// Addresses returns the addresses in insertion order.
func (b *Book) Addresses() []*Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*Address(nil), b.addresses...)
}

// Len returns the number of addresses.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.addresses)
}

// Serialize returns every address as a record.
func (b *Book) Serialize() []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Record, len(b.addresses))
	for i, a := range b.addresses {
		out[i] = a.Serialize()
	}
	return out
}

// Deserialize appends the given records to the book.
func (b *Book) Deserialize(records []Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range records {
		b.addresses = append(b.addresses, New(r.Street, r.City, r.Country, r.Locations))
	}
}

// Load decodes a JSON array of records from r into the book.
func (b *Book) Load(r io.Reader) error {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return fmt.Errorf("decode address book: %w", err)
	}
	b.Deserialize(records)
	return nil
}

// Save writes the book as an indented JSON array.
func (b *Book) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b.Serialize())
}
