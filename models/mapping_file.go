package models

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Mapping kinds, as written in the `kind` field of a mapping file.
const (
	ValuesKind = "values"
	PolicyKind = "policy"
)

// ErrUnknownKind is returned when a mapping file declares an unexpected kind.
var ErrUnknownKind = errors.New("unknown mapping kind")

// Entry is one state and its mapped value, as stored in a mapping file.
type Entry struct {
	PlayerSum  int     `yaml:"playerSum"`
	DealerCard int     `yaml:"dealerCard"`
	UsableAce  bool    `yaml:"usableAce"`
	Value      float64 `yaml:"value"`
}

// MappingFile is the on-disk form of a value function or policy:
//
//	kind: policy
//	entries:
//	  - {playerSum: 20, dealerCard: 10, usableAce: false, value: 0}
type MappingFile struct {
	Kind    string  `yaml:"kind"`
	Entries []Entry `yaml:"entries"`
}

func readMappingFile(path, kind string) (*MappingFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	mf := &MappingFile{}
	if err = yaml.Unmarshal(raw, mf); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if mf.Kind != kind {
		return nil, fmt.Errorf("%w: %s declares %q, expected %q", ErrUnknownKind, path, mf.Kind, kind)
	}
	return mf, nil
}

// LoadValues reads a value-function mapping file.
func LoadValues(path string) (ValueFunction, error) {
	mf, err := readMappingFile(path, ValuesKind)
	if err != nil {
		return nil, err
	}

	values := make(ValueFunction, len(mf.Entries))
	for _, e := range mf.Entries {
		values[e.state()] = e.Value
	}
	return values, nil
}

// LoadPolicy reads a policy mapping file. Every entry must hold 0 (stick) or 1 (hit).
func LoadPolicy(path string) (Policy, error) {
	mf, err := readMappingFile(path, PolicyKind)
	if err != nil {
		return nil, err
	}

	policy := make(Policy, len(mf.Entries))
	for _, e := range mf.Entries {
		action, err := ActionFromValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("%s entry %v: %w", path, e.state(), err)
		}
		policy[e.state()] = action
	}
	return policy, nil
}

// SavePolicy writes the policy as a mapping file.
func SavePolicy(path string, policy Policy) error {
	entries := make([]Entry, 0, len(policy))
	for s, a := range policy {
		entries = append(entries, entryOf(s, float64(a)))
	}
	return saveMapping(path, PolicyKind, entries)
}

// SaveValues writes the value function as a mapping file.
func SaveValues(path string, values ValueFunction) error {
	entries := make([]Entry, 0, len(values))
	for s, v := range values {
		entries = append(entries, entryOf(s, v))
	}
	return saveMapping(path, ValuesKind, entries)
}

func saveMapping(path, kind string, entries []Entry) error {
	// Maps have no order; sort so that files diff cleanly.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.UsableAce != b.UsableAce {
			return a.UsableAce
		}
		if a.PlayerSum != b.PlayerSum {
			return a.PlayerSum > b.PlayerSum
		}
		return a.DealerCard < b.DealerCard
	})

	raw, err := yaml.Marshal(&MappingFile{Kind: kind, Entries: entries})
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err = os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

func (e Entry) state() State {
	return State{PlayerSum: e.PlayerSum, DealerCard: e.DealerCard, UsableAce: e.UsableAce}
}

func entryOf(s State, v float64) Entry {
	return Entry{PlayerSum: s.PlayerSum, DealerCard: s.DealerCard, UsableAce: s.UsableAce, Value: v}
}
