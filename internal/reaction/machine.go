// Package reaction holds the per (target, actor) reaction state machine.
//
// An actor is in exactly one of three states for any target. The like and
// dislike sets of a target are the actors in the liked and disliked states, so
// they are mutually exclusive by construction.
package reaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/looplab/fsm"
)

// State of one actor towards one target.
type State string

const (
	Neutral  State = "neutral"
	Liked    State = "liked"
	Disliked State = "disliked"
)

// Action requested by an actor.
type Action string

const (
	Like       Action = "like"
	Dislike    Action = "dislike"
	Neutralize Action = "neutralize"
)

var allStates = []string{string(Neutral), string(Liked), string(Disliked)}

// Every action is legal from every state. Landing on the current state is a
// no-op, which makes like and dislike idempotent instead of toggling.
var events = fsm.Events{
	{Name: string(Like), Src: allStates, Dst: string(Liked)},
	{Name: string(Dislike), Src: allStates, Dst: string(Disliked)},
	{Name: string(Neutralize), Src: allStates, Dst: string(Neutral)},
}

// ErrUnknownAction is returned by ParseAction.
var ErrUnknownAction = errors.New("unknown reaction action")

// ParseAction accepts the action names used on the HTTP surface.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like":
		return Like, nil
	case "dislike":
		return Dislike, nil
	case "neutral", "neutralize":
		return Neutralize, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// StateFromKind maps a stored reaction kind to a state; no row means Neutral.
func StateFromKind(kind string) State {
	switch kind {
	case "like":
		return Liked
	case "dislike":
		return Disliked
	}
	return Neutral
}

// Kind is the stored reaction kind for s, empty for Neutral.
func (s State) Kind() string {
	switch s {
	case Liked:
		return "like"
	case Disliked:
		return "dislike"
	}
	return ""
}

// Transition is the result of applying an action.
type Transition struct {
	From   State
	To     State
	Action Action
}

// Changed reports whether the actor's state moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Notifies reports whether the transition should produce a notification:
// only a like or dislike that actually changed state does. Neutralize is a
// pure retraction.
func (t Transition) Notifies() bool {
	return t.Changed() && t.Action != Neutralize
}

// Apply runs action against from and returns the resulting transition.
func Apply(ctx context.Context, from State, action Action) (Transition, error) {
	machine := fsm.NewFSM(string(from), events, fsm.Callbacks{})

	err := machine.Event(ctx, string(action))
	var noop fsm.NoTransitionError
	if err != nil && !errors.As(err, &noop) {
		return Transition{}, fmt.Errorf("reaction %s from %s: %w", action, from, err)
	}

	return Transition{From: from, To: State(machine.Current()), Action: action}, nil
}

// Sets is the membership view of one target.
type Sets struct {
	Likes    []string `json:"likes"`
	Dislikes []string `json:"dislikes"`
}

// StateOf returns actor's state according to s.
func (s Sets) StateOf(actor string) State {
	for _, a := range s.Likes {
		if a == actor {
			return Liked
		}
	}
	for _, a := range s.Dislikes {
		if a == actor {
			return Disliked
		}
	}
	return Neutral
}
