package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationAvgPriceRoundsUp(t *testing.T) {
	d := &Destination{LowestPrice: 100, HighestPrice: 201}
	assert.Equal(t, 151, d.AvgPrice())

	free := &Destination{}
	assert.Equal(t, 0, free.AvgPrice())
}

func TestDestinationIsLodging(t *testing.T) {
	hotel := &Destination{Catalogs: []Catalog{{Name: "hotel", Parent: "Lodging"}}}
	museum := &Destination{Catalogs: []Catalog{{Name: "museum", Parent: "culture"}}}

	assert.True(t, hotel.IsLodging())
	assert.False(t, museum.IsLodging())
}

func TestDestinationAffinity(t *testing.T) {
	d := &Destination{Personalities: []PersonalityAffinity{
		{Personality: "adventurous", PlanCount: 3, VisitCount: 1},
		{Personality: "foodie", PlanCount: 2, VisitCount: 4},
	}}

	assert.Equal(t, 5, d.Affinity([]string{"adventurous"}))
	assert.Equal(t, 15, d.Affinity(nil))
	assert.True(t, d.HasAnyPersonality([]string{"foodie", "quiet"}))
	assert.False(t, d.HasAnyPersonality([]string{"quiet"}))
}

func TestOptionalDistinguishesAbsentFromNull(t *testing.T) {
	type patch struct {
		Stay Optional[string] `json:"stay"`
	}

	var absent, null, set patch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"stay":null}`), &null))
	require.NoError(t, json.Unmarshal([]byte(`{"stay":"hotel-1"}`), &set))

	current := "hotel-0"
	assert.Equal(t, &current, absent.Stay.Apply(&current))
	assert.Nil(t, null.Stay.Apply(&current))
	require.NotNil(t, set.Stay.Apply(&current))
	assert.Equal(t, "hotel-1", *set.Stay.Apply(&current))
}

func TestErrorKindsSurviveWrapping(t *testing.T) {
	err := InvalidInput("day %d is empty", 2)
	wrapped := Upstream(err, "routing failed")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, wrapped, ErrUpstream)
	assert.ErrorIs(t, wrapped, ErrInvalidInput)
	assert.Equal(t, "day 2 is empty", Message(err))
	assert.Equal(t, "routing failed", Message(wrapped))
}
