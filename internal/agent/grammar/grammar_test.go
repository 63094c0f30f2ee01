package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "", Join(nil, ", ", "and"))
	assert.Equal(t, "a", Join([]string{"a"}, ", ", "and"))
	assert.Equal(t, "a and b", Join([]string{"a", "b"}, ", ", "and"))
	assert.Equal(t, "a, b or c", Join([]string{"a", "b", "c"}, ", ", "or"))
	assert.Equal(t, "a\nb\nc", Join([]string{"a", "b", "c"}, "\n", ""))
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, "1st", Ordinal(1))
	assert.Equal(t, "2nd", Ordinal(2))
	assert.Equal(t, "11th", Ordinal(11))
	assert.Equal(t, "23rd", Ordinal(23))
}

func TestAgreeWithNumber(t *testing.T) {
	w, err := AgreeWithNumber("results", 1)
	require.NoError(t, err)
	assert.Equal(t, "result", w)

	w, err = AgreeWithNumber("search", 2)
	require.NoError(t, err)
	assert.Equal(t, "searches", w)

	_, err = AgreeWithNumber("booking", 0)
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	assert.Equal(t, "no bookings", Count("booking", 0))
	assert.Equal(t, "1 booking", Count("bookings", 1))
	assert.Equal(t, "4 people", Count("person", 4))
}

func TestPluralizePlaceTypes(t *testing.T) {
	tests := []struct {
		singular string
		plural   string
	}{
		{"pizzeria", "pizzerias"},
		{"trattoria", "trattorias"},
		{"osteria", "osterias"},
		{"gelateria", "gelaterias"},
		{"cafeteria", "cafeterias"},
		{"cafe", "cafes"},
		{"bakery", "bakeries"},
		{"restaurant", "restaurants"},
	}
	for _, tt := range tests {
		t.Run(tt.singular, func(t *testing.T) {
			assert.Equal(t, tt.plural, Pluralize(tt.singular))
			assert.Equal(t, tt.plural, Pluralize(tt.plural))
			assert.Equal(t, tt.singular, Singularize(tt.plural))
			assert.Equal(t, tt.singular, Singularize(tt.singular))
			assert.Equal(t, "2 "+tt.plural, Count(tt.singular, 2))
		})
	}
}

func TestToSecondPerson(t *testing.T) {
	assert.Equal(t, "near your hotel", ToSecondPerson("near my hotel"))
	assert.Equal(t, "where you are", ToSecondPerson("where I am"))
	assert.Equal(t, "close to you", ToSecondPerson("close to me"))
}
