package fetchcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	testCases := []struct {
		namespace string
		rawUrl    string
		expect    string
	}{
		{namespace: "suggest", rawUrl: "https://google.com", expect: "suggest:https://google.com/"},
		{namespace: "suggest", rawUrl: "https://google.com/index.html", expect: "suggest:https://google.com/"},
		{namespace: "suggest", rawUrl: "https://www.google.com?b=2&a=1#1-2", expect: "suggest:https://www.google.com/?a=1&b=2"},
		{namespace: "questions", rawUrl: "https://google.com", expect: "questions:https://google.com/"},
	}

	for _, test := range testCases {
		res, err := cacheKey(test.namespace, test.rawUrl)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, res, test.expect)
	}
}

func TestCache(t *testing.T) {
	cache, err := OpenInMemory(time.Second)
	require.Nil(t, err)
	defer cache.Close()

	_, err = cache.Get(context.Background(), "suggest", "https://example.com/complete?q=a")
	require.Equal(t, err, ErrNotFound)

	err = cache.Set(context.Background(), "suggest", "https://example.com/complete?q=a", "payload a")
	require.Nil(t, err)

	// a different namespace does not see the entry
	_, err = cache.Get(context.Background(), "questions", "https://example.com/complete?q=a")
	require.Equal(t, err, ErrNotFound)

	cached, err := cache.Get(context.Background(), "suggest", "https://example.com/complete?q=a")
	require.Nil(t, err)
	require.Equal(t, cached, "payload a")

	// normalized spellings of the url share the slot
	cached, err = cache.Get(context.Background(), "suggest", "https://example.com/complete?q=a#frag")
	require.Nil(t, err)
	require.Equal(t, cached, "payload a")

	time.Sleep(time.Second)
	_, err = cache.Get(context.Background(), "suggest", "https://example.com/complete?q=a")
	require.Equal(t, err, ErrNotFound)
}
