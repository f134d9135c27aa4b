// Package directory provides the read-only reviewer and editor rosters.
package directory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Person is one roster entry.
type Person struct {
	ID          string   `toml:"id" json:"id"`
	Name        string   `toml:"name" json:"name"`
	Email       string   `toml:"email" json:"email,omitempty"`
	Affiliation string   `toml:"affiliation" json:"affiliation,omitempty"`
	Expertise   []string `toml:"expertise" json:"expertise,omitempty"`
}

// Directory is an immutable, id-indexed roster. A nil Directory is empty.
type Directory struct {
	kind   string
	people []Person
	byID   map[string]int
}

// New builds a directory of kind from people. Ids are trimmed; entries with
// an empty or repeated id are rejected.
func New(kind string, people []Person) (*Directory, error) {
	d := &Directory{kind: kind, byID: make(map[string]int, len(people))}
	for i, p := range people {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" {
			return nil, fmt.Errorf("%s entry %d: id is required", kind, i+1)
		}
		if _, dup := d.byID[p.ID]; dup {
			return nil, fmt.Errorf("%s entry %d: duplicate id %q", kind, i+1, p.ID)
		}
		p.Expertise = slices.Clone(p.Expertise)
		d.byID[p.ID] = len(d.people)
		d.people = append(d.people, p)
	}
	return d, nil
}

// Kind is "reviewers" or "editors".
func (d *Directory) Kind() string {
	if d == nil {
		return ""
	}
	return d.kind
}

func (d *Directory) Count() int {
	if d == nil {
		return 0
	}
	return len(d.people)
}

func (d *Directory) Lookup(id string) (Person, bool) {
	if d == nil {
		return Person{}, false
	}
	idx, ok := d.byID[strings.TrimSpace(id)]
	if !ok {
		return Person{}, false
	}
	p := d.people[idx]
	p.Expertise = slices.Clone(p.Expertise)
	return p, true
}

func (d *Directory) Has(id string) bool {
	_, ok := d.Lookup(id)
	return ok
}

// List returns every entry in roster order.
func (d *Directory) List() []Person {
	if d == nil {
		return nil
	}
	out := make([]Person, len(d.people))
	for i, p := range d.people {
		p.Expertise = slices.Clone(p.Expertise)
		out[i] = p
	}
	return out
}

// Roster holds both directories loaded from one file.
type Roster struct {
	Reviewers *Directory
	Editors   *Directory
}

type rosterFile struct {
	Reviewers []Person `toml:"reviewers"`
	Editors   []Person `toml:"editors"`
}

// Load reads the [[reviewers]] and [[editors]] tables from path. A missing
// file yields an empty roster.
func Load(path string) (*Roster, error) {
	if strings.TrimSpace(path) == "" {
		return Empty(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(data)
}

// Parse decodes roster TOML.
func Parse(data []byte) (*Roster, error) {
	var file rosterFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	reviewers, err := New("reviewers", file.Reviewers)
	if err != nil {
		return nil, err
	}
	editors, err := New("editors", file.Editors)
	if err != nil {
		return nil, err
	}
	return &Roster{Reviewers: reviewers, Editors: editors}, nil
}

// Empty returns a roster with no entries.
func Empty() *Roster {
	reviewers, _ := New("reviewers", nil)
	editors, _ := New("editors", nil)
	return &Roster{Reviewers: reviewers, Editors: editors}
}
