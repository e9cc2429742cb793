package services

import (
	"fmt"
)

type Participant struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Pair is the fixed two-person set the check-in flow is built around.
// Reveal and analytics assume exactly two members; a larger group would
// need a different notion of "the partner".
type Pair struct {
	members [2]Participant
}

func NewPair(a, b Participant) (Pair, error) {
	if a.ID == "" || b.ID == "" {
		return Pair{}, fmt.Errorf("participant id must not be empty")
	}
	if a.ID == b.ID {
		return Pair{}, fmt.Errorf("participants must be distinct, got %q twice", a.ID)
	}
	return Pair{members: [2]Participant{a, b}}, nil
}

// NewPairFrom builds a Pair from a list that must hold exactly two entries.
func NewPairFrom(list []Participant) (Pair, error) {
	if len(list) != 2 {
		return Pair{}, fmt.Errorf("exactly two participants are required, got %d", len(list))
	}
	return NewPair(list[0], list[1])
}

func (p Pair) Has(id string) bool {
	_, ok := p.Get(id)
	return ok
}

func (p Pair) Get(id string) (Participant, bool) {
	for _, m := range p.members {
		if m.ID == id {
			return m, true
		}
	}
	return Participant{}, false
}

// Other returns the member that is not id. It reports false when id is not in the pair.
func (p Pair) Other(id string) (Participant, bool) {
	switch id {
	case p.members[0].ID:
		return p.members[1], true
	case p.members[1].ID:
		return p.members[0], true
	}
	return Participant{}, false
}

func (p Pair) Members() []Participant {
	return []Participant{p.members[0], p.members[1]}
}

func (p Pair) DisplayName(id string) string {
	if m, ok := p.Get(id); ok && m.Name != "" {
		return m.Name
	}
	return id
}
