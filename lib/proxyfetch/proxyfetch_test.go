package proxyfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig(strategies ...Strategy) Config {
	return Config{
		Strategies:          strategies,
		AttemptsPerStrategy: 2,
		AttemptTimeout:      time.Second * 2,
		RetryDelay:          time.Millisecond,
	}
}

func testStrategy(name, baseURL string) Strategy {
	return Strategy{
		Name: name,
		BuildURL: func(target string) string {
			return baseURL
		},
		Unwrap: UnwrapRaw,
	}
}

func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestFetchFirstSuccess(t *testing.T) {
	server, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	})

	f := NewFetcher(testConfig(testStrategy("good", server.URL)))
	out, err := FetchText(context.Background(), f, "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "hello", out)
	require.EqualValues(t, 1, hits.Load())
}

func TestFetchFallsThroughToNextStrategy(t *testing.T) {
	broken, brokenHits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	good, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "payload")
	})

	f := NewFetcher(testConfig(
		testStrategy("broken", broken.URL),
		testStrategy("good", good.URL),
	))
	out, err := FetchText(context.Background(), f, "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "payload", out)
	// error statuses are not retried
	require.EqualValues(t, 1, brokenHits.Load())
}

func TestFetchStatusSkipsRetry(t *testing.T) {
	server, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	f := NewFetcher(testConfig(
		testStrategy("first", server.URL),
		testStrategy("second", server.URL),
	))
	_, err := FetchText(context.Background(), f, "https://example.com")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, KindExhausted, fetchErr.Kind)
	require.Len(t, fetchErr.Attempts, 2)
	require.EqualValues(t, 2, hits.Load())
	require.Contains(t, err.Error(), "all proxies failed")
}

func TestFetchEmptyPayloadRetriesSameStrategy(t *testing.T) {
	server, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		// always an empty 200
	})

	f := NewFetcher(testConfig(testStrategy("empty", server.URL)))
	_, err := FetchText(context.Background(), f, "https://example.com")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	// the empty payload was retried on the same relay before giving up
	require.EqualValues(t, 2, hits.Load())
	require.Len(t, fetchErr.Attempts, 2)
	require.Contains(t, fetchErr.Last.Error(), "empty payload")
}

func TestFetchEmptyThenRecovers(t *testing.T) {
	var flip atomic.Bool
	server, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if flip.Swap(true) {
			fmt.Fprint(w, "ok")
		}
		// first hit: empty body
	})

	f := NewFetcher(testConfig(testStrategy("flaky", server.URL)))
	out, err := FetchText(context.Background(), f, "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.EqualValues(t, 2, hits.Load())
}

func TestFetchConnectivityClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	// closing up front guarantees connection refused on every attempt
	addr := server.URL
	server.Close()

	f := NewFetcher(testConfig(
		testStrategy("first", addr),
		testStrategy("second", addr),
	))
	_, err := FetchText(context.Background(), f, "https://example.com")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, KindConnectivity, fetchErr.Kind)
	// transport failures burn the full attempt budget on every strategy
	require.Len(t, fetchErr.Attempts, 4)
	require.Contains(t, err.Error(), "ad blocker")
}

func TestFetchTimeoutClassification(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond * 300)
		fmt.Fprint(w, "too late")
	})

	cfg := Config{
		Strategies:          []Strategy{testStrategy("slow", server.URL)},
		AttemptsPerStrategy: 1,
		AttemptTimeout:      time.Millisecond * 30,
		RetryDelay:          time.Millisecond,
	}
	f := NewFetcher(cfg)
	_, err := FetchText(context.Background(), f, "https://example.com")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, KindTimeout, fetchErr.Kind)
	require.Contains(t, err.Error(), "timed out")
}

func TestFetchContextCanceled(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "unused")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(testConfig(testStrategy("good", server.URL)))
	_, err := FetchText(ctx, f, "https://example.com")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchInterpreterFailureReturnsImmediately(t *testing.T) {
	server, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not a number")
	})

	f := NewFetcher(testConfig(testStrategy("good", server.URL)))
	_, err := Fetch(context.Background(), f, "https://example.com", func(raw string) (int, error) {
		return 0, errors.New("unusable payload")
	})
	require.Error(t, err)
	require.NotContains(t, err.Error(), "all proxies failed")
	// the payload was delivered once, the interpreter rejecting it is not
	// a relay failure
	require.EqualValues(t, 1, hits.Load())
}

func TestFetchJSON(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": 7}`)
	})

	f := NewFetcher(testConfig(testStrategy("good", server.URL)))
	out, err := FetchJSON[struct {
		Value int `json:"value"`
	}](context.Background(), f, "https://example.com")
	require.NoError(t, err)
	require.Equal(t, 7, out.Value)
}

func TestFetchUnwrapsEnvelope(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"contents": "inner payload", "status": {"http_code": 200}}`)
	})

	strategy := Strategy{
		Name: "enveloped",
		BuildURL: func(target string) string {
			return server.URL
		},
		Unwrap: UnwrapEnvelope,
	}
	f := NewFetcher(testConfig(strategy))
	out, err := FetchText(context.Background(), f, "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "inner payload", out)
}

func TestUnwrapEnvelopeMalformed(t *testing.T) {
	_, err := UnwrapEnvelope([]byte("<html>not json</html>"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unwrap relay envelope")
}

func TestDefaultStrategiesEscapeTarget(t *testing.T) {
	for _, strategy := range DefaultStrategies() {
		built := strategy.BuildURL("https://example.com/search?q=a b&hl=en")
		require.NotContains(t, built, " ", "strategy %s", strategy.Name)
		require.Contains(t, built, "https%3A%2F%2Fexample.com", "strategy %s must escape the target", strategy.Name)
	}
}
