package spelling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "proof", r.URL.Query().Get("mode"))
		assert.Equal(t, "en-GB", r.URL.Query().Get("mkt"))
		assert.Equal(t, "k", r.Header.Get("Ocp-Apim-Subscription-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "find a resturant near the colloseum", r.PostForm.Get("text"))

		_, _ = w.Write([]byte(`{"flaggedTokens":[
			{"offset":7,"token":"resturant","type":"UnknownToken","suggestions":[{"suggestion":"restaurant","score":0.9}]},
			{"offset":26,"token":"colloseum","type":"UnknownToken","suggestions":[{"suggestion":"colosseum","score":0.8},{"suggestion":"coliseum","score":0.5}]}
		]}`))
	}))
	defer srv.Close()

	c, err := New(Config{Key: "k", URL: srv.URL, Locale: "en-GB", Timeout: 5})
	require.NoError(t, err)

	got, err := c.Correct(context.Background(), "find a resturant near the colloseum")
	require.NoError(t, err)
	assert.Equal(t, "find a restaurant near the colosseum", got)
}

func TestUnsupportedLocale(t *testing.T) {
	_, err := New(Config{Locale: "xx-YY"})
	assert.ErrorContains(t, err, "xx-YY")
}

func TestApplyWithStaleOffsets(t *testing.T) {
	got := apply("teh cat", []flaggedToken{{Offset: 40, Token: "teh", Suggestions: []suggestion{{Suggestion: "the"}}}})
	assert.Equal(t, "the cat", got)
}

func TestCorrectSkipsBlankText(t *testing.T) {
	c, err := New(Config{Locale: "en-US", URL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	got, err := c.Correct(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "  ", got)
}
