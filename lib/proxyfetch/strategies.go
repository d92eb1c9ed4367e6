package proxyfetch

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// DefaultStrategies lists the public relays in the order they are tried.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name: "allorigins",
			BuildURL: func(target string) string {
				return "https://api.allorigins.win/get?url=" + url.QueryEscape(target)
			},
			Unwrap: UnwrapEnvelope,
		},
		{
			Name: "corsproxy",
			BuildURL: func(target string) string {
				return "https://corsproxy.io/?url=" + url.QueryEscape(target)
			},
			Unwrap: UnwrapRaw,
		},
		{
			Name: "codetabs",
			BuildURL: func(target string) string {
				return "https://api.codetabs.com/v1/proxy?quest=" + url.QueryEscape(target)
			},
			Unwrap: UnwrapRaw,
		},
	}
}

// UnwrapRaw passes the relay body through unmodified.
func UnwrapRaw(body []byte) (string, error) {
	return string(body), nil
}

type envelope struct {
	Contents string `json:"contents"`
}

// UnwrapEnvelope unpacks the {"contents": "..."} wrapper that relays like
// allorigins put around the target payload.
func UnwrapEnvelope(body []byte) (string, error) {
	var e envelope
	err := json.Unmarshal(body, &e)
	if err != nil {
		return "", fmt.Errorf("unwrap relay envelope: %w", err)
	}
	return e.Contents, nil
}
