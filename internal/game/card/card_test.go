package card

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	t.Parallel()

	deck := NewDeck()
	assert.Len(t, deck, 32)
	assert.False(t, HasDuplicates(deck))

	deck.Shuffle()
	assert.Len(t, deck, 32)
	assert.False(t, HasDuplicates(deck))
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		suit, rank string
		want       Card
		hasError   bool
	}{
		{"♣", "J", Card{Suit: Clubs, Rank: RankJ}, false},
		{"♦", "10", Card{Suit: Diamonds, Rank: Rank10}, false},
		{"hearts", "a", Card{Suit: Hearts, Rank: RankA}, false},
		{"S", "T", Card{Suit: Spades, Rank: Rank10}, false},
		{"", "J", Card{}, true},
		{"♣", "6", Card{}, true},
		{"x", "7", Card{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.suit+tt.rank, func(t *testing.T) {
			t.Parallel()
			c, err := Parse(tt.suit, tt.rank)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestCardJSON(t *testing.T) {
	t.Parallel()

	c := Card{Suit: Spades, Rank: Rank10}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"♠","rank":"10"}`, string(data))

	var back Card
	require.NoError(t, json.Unmarshal([]byte(`{"suit":"♥","rank":"K"}`), &back))
	assert.Equal(t, Card{Suit: Hearts, Rank: RankK}, back)

	assert.Error(t, json.Unmarshal([]byte(`{"suit":"?","rank":"K"}`), &back))
}

func TestCardString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "J♣", Card{Suit: Clubs, Rank: RankJ}.String())
	assert.Equal(t, "10♦", Card{Suit: Diamonds, Rank: Rank10}.String())
	assert.Equal(t, "?", Suit(9).String())
}
