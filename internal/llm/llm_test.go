package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/analysis"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/squad/squadtest"
)

func TestCompleteParsesFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-1234", r.Header.Get("Authorization"))
		var body struct {
			Model    string              `json:"model"`
			Messages []map[string]string `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0]["role"])
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Keep Salah.  "}}]}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL + "/v1/chat/completions/", APIKey: "sk-test-1234", Model: "gpt-4o-mini"}
	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Keep Salah.", out)
}

func TestCompleteRetriesOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Backoff: time.Millisecond}
	out, err := c.Complete(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		calls   int32
	}{
		{"BadRequestIsNotRetried", http.StatusBadRequest, `{"error":{"message":"bad model"}}`, "status=400: bad model", 1},
		{"RetriesExhausted", http.StatusTooManyRequests, `{}`, "status=429", 3},
		{"NoChoices", http.StatusOK, `{"choices":[]}`, "no choices", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := &Client{BaseURL: srv.URL, Backoff: time.Millisecond}
			_, err := c.Complete(context.Background(), "", "hi")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Equal(t, tc.calls, calls.Load())
		})
	}
}

func TestCompleteHonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := &Client{BaseURL: srv.URL}
	_, err := c.Complete(ctx, "", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPromptQuotesOnlyResultFacts(t *testing.T) {
	out := analysis.Analyze(squadtest.Snapshot(20), squadtest.Catalog(), recommend.DefaultPolicy())
	system, user := Prompt(out.Result, Context{Season: "2025/26", CurrentGW: 8, NextGW: 9}, " Who should I sell? ")

	assert.Contains(t, system, "2025/26")
	assert.Contains(t, system, "£12.3m")
	assert.Contains(t, user, "Bank: £2.0m")
	assert.Contains(t, user, "Team value: £103.1m")
	assert.Contains(t, user, "Haaland (MCI, FWD) sells for £15.0m, starter, captain")
	assert.Contains(t, user, "Pickford out, Alisson (LIV) in for £4.5m (+£0.5m)")
	assert.Contains(t, user, "QUESTION\nWho should I sell?\n")
	assert.NotContains(t, user, "Konate")
}

func TestPromptEmptyLists(t *testing.T) {
	out := analysis.Analyze(squadtest.Snapshot(0), squadtest.Catalog(), recommend.DefaultPolicy())
	out.Result.BenchUpgrades = nil
	_, user := Prompt(out.Result, Context{}, "?")
	assert.Contains(t, user, "Bench upgrades:\n- none within budget\n")
}
