// Package oils provides the oil reference library consumed by the soap
// calculator: an embedded static table and a database-backed store.
package oils

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"lathera/internal/soap"
)

//go:embed library.yaml
var defaultLibrary []byte

// Entry is one oil of the reference library.
type Entry struct {
	ID         string             `yaml:"id" json:"id"`
	Name       string             `yaml:"name" json:"name"`
	Category   string             `yaml:"category" json:"category"`
	Aliases    []string           `yaml:"aliases" json:"aliases,omitempty"`
	SapNaOH    float64            `yaml:"sap_naoh" json:"sap_naoh"`
	SapKOH     float64            `yaml:"sap_koh" json:"sap_koh"`
	Iodine     float64            `yaml:"iodine" json:"iodine"`
	INS        float64            `yaml:"ins" json:"ins"`
	FattyAcids map[string]float64 `yaml:"fatty_acids" json:"fatty_acids"`
}

// Reference converts the entry for use by the calculator.
func (e Entry) Reference() soap.OilReference {
	acids := make(map[string]float64, len(e.FattyAcids))
	for k, v := range e.FattyAcids {
		acids[k] = v
	}
	return soap.OilReference{
		ID:         e.ID,
		Name:       e.Name,
		SapNaOH:    e.SapNaOH,
		SapKOH:     e.SapKOH,
		FattyAcids: acids,
		Iodine:     e.Iodine,
		INS:        e.INS,
	}
}

// FattyAcidTotal sums the entry's fatty-acid percentages.
func (e Entry) FattyAcidTotal() float64 {
	total := 0.0
	for _, v := range e.FattyAcids {
		total += v
	}
	return total
}

// Library is an immutable, in-memory oil table. It is safe for concurrent use.
type Library struct {
	entries []Entry
	byID    map[string]int
	byName  map[string]int
}

type libraryFile struct {
	Oils []Entry `yaml:"oils"`
}

// Parse reads a YAML oil library.
func Parse(r io.Reader) (*Library, error) {
	var file libraryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode oil library: %w", err)
	}
	return New(file.Oils)
}

// New builds a library from entries, validating identifiers and SAP values.
func New(entries []Entry) (*Library, error) {
	lib := &Library{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		entry.ID = strings.TrimSpace(entry.ID)
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.ID == "" {
			return nil, fmt.Errorf("oil %d: id must not be empty", i+1)
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("oil %q: name must not be empty", entry.ID)
		}
		if entry.SapNaOH <= 0 {
			return nil, fmt.Errorf("oil %q: sap_naoh must be greater than zero", entry.ID)
		}
		if _, dup := lib.byID[entry.ID]; dup {
			return nil, fmt.Errorf("oil %q: duplicate id", entry.ID)
		}
		if entry.FattyAcids == nil {
			entry.FattyAcids = map[string]float64{}
		}
		lib.byID[entry.ID] = len(lib.entries)
		lib.byName[normalizeName(entry.Name)] = len(lib.entries)
		lib.entries = append(lib.entries, entry)
	}
	return lib, nil
}

var loadDefault = sync.OnceValues(func() (*Library, error) {
	return Parse(strings.NewReader(string(defaultLibrary)))
})

// Default returns the embedded reference library.
func Default() (*Library, error) {
	return loadDefault()
}

// MustDefault is Default for callers that cannot recover from a broken build.
func MustDefault() *Library {
	lib, err := Default()
	if err != nil {
		panic(err)
	}
	return lib
}

// Resolve implements soap.Resolver. The identifier may be an entry ID or,
// failing that, its exact display name in any case.
func (l *Library) Resolve(id string) (soap.OilReference, error) {
	if entry, ok := l.Get(id); ok {
		return entry.Reference(), nil
	}
	return soap.OilReference{}, fmt.Errorf("%w: %q", soap.ErrNotFound, id)
}

// Get returns the entry for an ID or display name.
func (l *Library) Get(id string) (Entry, bool) {
	if idx, ok := l.byID[strings.TrimSpace(id)]; ok {
		return l.entries[idx], true
	}
	if idx, ok := l.byName[normalizeName(id)]; ok {
		return l.entries[idx], true
	}
	return Entry{}, false
}

// List returns all entries sorted by name.
func (l *Library) List() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Len reports the number of entries.
func (l *Library) Len() int {
	return len(l.entries)
}

// Search returns entries whose name, ID or aliases contain query, sorted by name.
func (l *Library) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return l.List()
	}
	var out []Entry
	for _, entry := range l.List() {
		if strings.Contains(strings.ToLower(entry.Name), q) || strings.Contains(entry.ID, q) {
			out = append(out, entry)
			continue
		}
		for _, alias := range entry.Aliases {
			if strings.Contains(strings.ToLower(alias), q) {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}

// Match finds the entry best matching a free-form ingredient name using its
// name, ID and aliases, tolerating small spelling differences.
func (l *Library) Match(name string) (Entry, bool) {
	if entry, ok := l.Get(name); ok {
		return entry, true
	}
	targets := uniqueAliases([]string{name})
	if len(targets) == 0 {
		return Entry{}, false
	}
	for _, entry := range l.entries {
		candidates := uniqueAliases(append([]string{entry.Name, entry.ID}, entry.Aliases...))
		if exactAlias(candidates, targets) {
			return entry, true
		}
	}
	for _, entry := range l.entries {
		candidates := uniqueAliases(append([]string{entry.Name, entry.ID}, entry.Aliases...))
		if fuzzyAlias(candidates, targets) {
			return entry, true
		}
	}
	return Entry{}, false
}
