package taxonomy

import (
	"net/http"
	"testing"
	"time"
)

func TestFromHTTPClassification(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{400, KindBadRequest},
		{404, KindBadRequest},
		{422, KindBadRequest},
		{429, KindRateLimit},
		{408, KindTemporaryNetwork},
		{500, KindTemporaryNetwork},
		{503, KindTemporaryNetwork},
		{418, KindExtraction},
	}
	for _, c := range cases {
		err := FromHTTP("boom", HTTPContext{Source: "yahoo", Status: c.status})
		if err.Kind != c.want {
			t.Errorf("status %d: got kind %s, want %s", c.status, err.Kind, c.want)
		}
	}
}

func TestIsTransient(t *testing.T) {
	if !(&Error{Kind: KindRateLimit}).IsTransient() {
		t.Error("rate limit should be transient")
	}
	if !(&Error{Status: 503}).IsTransient() {
		t.Error("503 should be transient")
	}
	if (&Error{Status: 404}).IsTransient() {
		t.Error("404 should not be transient")
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "2")
	err := FromHTTP("rate limited", HTTPContext{Status: 429, Headers: h})
	if err.RetryAfter != 2*time.Second {
		t.Errorf("got %s, want 2s", err.RetryAfter)
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	h := http.Header{}
	h.Set("Retry-After", future)
	err := FromHTTP("rate limited", HTTPContext{Status: 429, Headers: h})
	if err.RetryAfter <= 0 || err.RetryAfter > 120*time.Second {
		t.Errorf("got %s, want ~90s", err.RetryAfter)
	}
}

func TestRedact(t *testing.T) {
	params := map[string]string{"apiKey": "shh", "symbol": "AAPL", "secretToken": "x"}
	redacted := Redact(params)
	if redacted["apiKey"] != "***" || redacted["secretToken"] != "***" {
		t.Error("expected key/secret/token params to be redacted")
	}
	if redacted["symbol"] != "AAPL" {
		t.Error("non-sensitive params must pass through unchanged")
	}
}
