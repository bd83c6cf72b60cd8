package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Endpoint(t *testing.T) {
	r, err := NewResolver("")
	require.NoError(t, err)

	testCases := []struct {
		category string
		ticker   string
		want     string
	}{
		{category: "stock", ticker: "AAPL", want: "http://localhost:8000/api/quote/AAPL"},
		{category: "summary", ticker: "MSFT", want: "http://localhost:8000/api/summary/MSFT"},
		{category: "search", ticker: "BRK B", want: "http://localhost:8000/api/search?ticker=BRK+B"},
		{category: "filings", ticker: "a/b", want: "http://localhost:8000/api/filings/a%2Fb"},
		{category: "stock", ticker: "", want: "http://localhost:8000/api/quote/"},
		{category: "", ticker: "AAPL", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.category+"/"+tc.ticker, func(t *testing.T) {
			got, err := r.Endpoint(tc.category, tc.ticker)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolver_UnknownCategory(t *testing.T) {
	r, err := NewResolver("https://data.example.com/v1/")
	require.NoError(t, err)
	assert.Equal(t, "https://data.example.com/v1", r.Base())

	_, err = r.Endpoint("crypto", "BTC")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestNewResolver_RejectsBadBase(t *testing.T) {
	_, err := NewResolver("ftp://example.com")
	assert.Error(t, err)
}

func TestKnownAndCategories(t *testing.T) {
	assert.True(t, Known(""))
	assert.True(t, Known("stock"))
	assert.False(t, Known("crypto"))
	assert.Equal(t, []string{"filings", "search", "stock", "summary"}, Categories())
}
