package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceString(t *testing.T) {
	tests := []struct {
		name string
		in   Price
		want string
	}{
		{"Premium", 123, "£12.3m"},
		{"Budget", 40, "£4.0m"},
		{"Zero", 0, "£0.0m"},
		{"Negative", -5, "-£0.5m"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.String())
		})
	}
}

func TestPriceSigned(t *testing.T) {
	assert.Equal(t, "+£0.5m", Price(5).Signed())
	assert.Equal(t, "-£1.2m", Price(-12).Signed())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Price
	}{
		{"12.3", 123},
		{"£12.3m", 123},
		{"4.5m", 45},
		{" 100 ", 1000},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Parse("lots")
	assert.Error(t, err)
}

func TestFromMillionsRounds(t *testing.T) {
	assert.Equal(t, Price(60), FromMillions(6.0))
	assert.Equal(t, Price(83), FromMillions(8.26))
}

func TestPriceJSONUsesMillions(t *testing.T) {
	b, err := json.Marshal(struct {
		Bank Price `json:"bank"`
	}{Bank: 20})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bank":2.0}`, string(b))

	var out struct {
		Bank Price `json:"bank"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"bank":6.5}`), &out))
	assert.Equal(t, Price(65), out.Bank)
}
