// Package checklist defines the static, ordered list of inspection questions
// asked during an interview.
package checklist

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default option labels used when an item declares none.
const (
	OptionYes = "Yes"
	OptionNo  = "No"
)

// ErrEmpty is returned when a checklist has no items.
var ErrEmpty = errors.New("checklist must contain at least one item")

// Item is one question in the checklist. Index is assigned on load and fixes
// the asking order for the lifetime of the process.
type Item struct {
	Index   int      `yaml:"-"`
	Prompt  string   `yaml:"prompt"`
	Options []string `yaml:"options,omitempty"`
}

// HasOption reports whether label is one of the item's declared options.
func (it Item) HasOption(label string) bool {
	for _, opt := range it.Options {
		if opt == label {
			return true
		}
	}
	return false
}

// Checklist is an immutable, ordered set of items.
type Checklist struct {
	items []Item
}

// New builds a Checklist from items, assigning indexes and defaulting missing
// options to Yes/No. The input slice is not retained.
func New(items []Item) (*Checklist, error) {
	if len(items) == 0 {
		return nil, ErrEmpty
	}

	out := make([]Item, len(items))
	for i, it := range items {
		prompt := strings.TrimSpace(it.Prompt)
		if prompt == "" {
			return nil, fmt.Errorf("checklist item %d: prompt is empty", i+1)
		}

		opts := it.Options
		if len(opts) == 0 {
			opts = []string{OptionYes, OptionNo}
		}
		seen := make(map[string]bool, len(opts))
		cleaned := make([]string, 0, len(opts))
		for _, o := range opts {
			o = strings.TrimSpace(o)
			if o == "" {
				return nil, fmt.Errorf("checklist item %d: empty option label", i+1)
			}
			if seen[o] {
				return nil, fmt.Errorf("checklist item %d: duplicate option %q", i+1, o)
			}
			seen[o] = true
			cleaned = append(cleaned, o)
		}

		out[i] = Item{Index: i, Prompt: prompt, Options: cleaned}
	}

	return &Checklist{items: out}, nil
}

// Default returns the built-in inspection checklist.
func Default() *Checklist {
	cl, err := New([]Item{
		{Prompt: "Is the EV charging working?"},
		{Prompt: "Is the CARE entry Andon Board Working?"},
		{Prompt: "Flags Performance Overview Screen working?"},
		{Prompt: "Cluster Andon Screen Working?"},
	})
	if err != nil {
		panic(err)
	}
	return cl
}

// Len returns the number of items.
func (c *Checklist) Len() int {
	return len(c.items)
}

// Item returns the item at index i. ok is false when i is out of range.
func (c *Checklist) Item(i int) (Item, bool) {
	if i < 0 || i >= len(c.items) {
		return Item{}, false
	}
	it := c.items[i]
	it.Options = append([]string(nil), it.Options...)
	return it, true
}

// Items returns a copy of all items in asking order.
func (c *Checklist) Items() []Item {
	out := make([]Item, len(c.items))
	for i := range c.items {
		out[i], _ = c.Item(i)
	}
	return out
}

// file is the on-disk shape of a standalone checklist file.
type file struct {
	Items []Item `yaml:"checklist"`
}

// LoadFile reads a YAML checklist file of the form:
//
//	checklist:
//	  - prompt: Is the EV charging working?
//	    options: [Yes, No]
func LoadFile(path string) (*Checklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checklist: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing checklist: %w", err)
	}

	return New(f.Items)
}
