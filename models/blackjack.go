package models

import (
	"errors"
	"fmt"
)

// State is the blackjack state as seen by the player: the current hand total,
// the dealer's face-up card (1 is an ace, 10 any ten-valued card), and whether
// the player holds an ace counted as 11 without busting.
type State struct {
	PlayerSum  int
	DealerCard int
	UsableAce  bool
}

func (s State) String() string {
	return fmt.Sprintf("(%d, %d, %t)", s.PlayerSum, s.DealerCard, s.UsableAce)
}

// Action is a discrete policy code.
type Action int

const (
	Stick Action = 0
	Hit   Action = 1
)

func (a Action) String() string {
	switch a {
	case Stick:
		return "STICK"
	case Hit:
		return "HIT"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ErrNonBinaryAction is returned when a policy code is neither Stick nor Hit.
var ErrNonBinaryAction = errors.New("policy action must be 0 (stick) or 1 (hit)")

// ActionFromValue converts a numeric policy code into an Action.
func ActionFromValue(v float64) (Action, error) {
	switch v {
	case 0:
		return Stick, nil
	case 1:
		return Hit, nil
	}
	return Stick, fmt.Errorf("%w: got %v", ErrNonBinaryAction, v)
}

// ValueFunction maps states to estimated state values.
type ValueFunction map[State]float64

// Policy maps states to the action taken in them.
type Policy map[State]Action

// PolicyFromBools converts a policy whose values are hit-flags into action codes.
func PolicyFromBools(hits map[State]bool) Policy {
	policy := make(Policy, len(hits))
	for state, hit := range hits {
		if hit {
			policy[state] = Hit
		} else {
			policy[state] = Stick
		}
	}
	return policy
}

// Domain bounds of the states worth plotting, and of the states reachable at all.
const (
	MIN_PLOTTED_SUM = 12
	MAX_PLAYER_SUM  = 21
	MIN_PLAYER_SUM  = 4
	MIN_DEALER_CARD = 1
	MAX_DEALER_CARD = 10
)

// ThresholdPolicy is the textbook fixed policy: stick on stickAt or more, otherwise hit.
// Sums below MIN_PLOTTED_SUM are included, so callers see what the plots filter out.
func ThresholdPolicy(stickAt int) Policy {
	policy := Policy{}
	Visit(func(s State) {
		if s.PlayerSum >= stickAt {
			policy[s] = Stick
		} else {
			policy[s] = Hit
		}
	})
	return policy
}

// Visit calls fn on every reachable non-bust state.
func Visit(fn func(s State)) {
	for _, ace := range []bool{true, false} {
		for sum := MIN_PLAYER_SUM; sum <= MAX_PLAYER_SUM; sum++ {
			for card := MIN_DEALER_CARD; card <= MAX_DEALER_CARD; card++ {
				fn(State{PlayerSum: sum, DealerCard: card, UsableAce: ace})
			}
		}
	}
}

// Rev returns the indices of a slice of the passed length in reverse order, e.g. for ranging over.
func Rev(length int) []int {
	indices := make([]int, length)
	for i := 0; i < length; i++ {
		indices[i] = length - i - 1
	}
	return indices
}
