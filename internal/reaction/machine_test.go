package reaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_TransitionTable(t *testing.T) {
	tests := []struct {
		from    State
		action  Action
		to      State
		changed bool
		notify  bool
	}{
		{Neutral, Like, Liked, true, true},
		{Neutral, Dislike, Disliked, true, true},
		{Neutral, Neutralize, Neutral, false, false},
		{Liked, Like, Liked, false, false},
		{Liked, Dislike, Disliked, true, true},
		{Liked, Neutralize, Neutral, true, false},
		{Disliked, Like, Liked, true, true},
		{Disliked, Dislike, Disliked, false, false},
		{Disliked, Neutralize, Neutral, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			tr, err := Apply(context.Background(), tt.from, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.from, tr.From)
			assert.Equal(t, tt.to, tr.To)
			assert.Equal(t, tt.changed, tr.Changed())
			assert.Equal(t, tt.notify, tr.Notifies())
		})
	}
}

func TestApply_LikeThenDislike(t *testing.T) {
	ctx := context.Background()
	tr, err := Apply(ctx, Neutral, Like)
	require.NoError(t, err)
	tr, err = Apply(ctx, tr.To, Dislike)
	require.NoError(t, err)
	assert.Equal(t, Disliked, tr.To)
}

func TestApply_Rejects(t *testing.T) {
	_, err := Apply(context.Background(), State("angry"), Like)
	assert.Error(t, err)

	_, err = Apply(context.Background(), Neutral, Action("love"))
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]Action{
		"like":        Like,
		"DISLIKE":     Dislike,
		"neutral":     Neutralize,
		" neutralize": Neutralize,
	} {
		got, err := ParseAction(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseAction("toggle")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestStateKindRoundTrip(t *testing.T) {
	for _, s := range []State{Neutral, Liked, Disliked} {
		assert.Equal(t, s, StateFromKind(s.Kind()))
	}
}

func TestSets_StateOf(t *testing.T) {
	s := Sets{Likes: []string{"alice"}, Dislikes: []string{"bob"}}
	assert.Equal(t, Liked, s.StateOf("alice"))
	assert.Equal(t, Disliked, s.StateOf("bob"))
	assert.Equal(t, Neutral, s.StateOf("carol"))
}
