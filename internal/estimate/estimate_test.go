package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr error
	}{
		{"plain", "42", 42, nil},
		{"decimals", "67.25", 67.25, nil},
		{"whitespace", "  12.5\n", 12.5, nil},
		{"zero", "0", 0, nil},
		{"hundred", "100", 100, nil},
		{"over", "100.01", 0, ErrOutOfRange},
		{"negative", "-3", 0, ErrOutOfRange},
		{"prose", "about 40", 0, ErrMalformed},
		{"empty", "", 0, ErrMalformed},
		{"nan", "NaN", 0, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScore(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDetailed(t *testing.T) {
	got, err := ParseDetailed("```json\n[10,20,30,40,50,60,70,80,90,100]\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 10 || got[9] != 100 {
		t.Errorf("unexpected scores %v", got)
	}

	if _, err := ParseDetailed("[1,2,3]"); !errors.Is(err, ErrMalformed) {
		t.Errorf("short array: expected ErrMalformed, got %v", err)
	}
	if _, err := ParseDetailed("[1,2,3,4,5,6,7,8,9,101]"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out of range: expected ErrOutOfRange, got %v", err)
	}
	if _, err := ParseDetailed("not json"); !errors.Is(err, ErrMalformed) {
		t.Errorf("garbage: expected ErrMalformed, got %v", err)
	}
}

func chatServer(t *testing.T, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			json.NewDecoder(r.Body).Decode(seen)
		}
		json.NewEncoder(w).Encode(chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: reply}}}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIEstimator_Absolute(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, "55.5", &seen)
	e := NewOpenAIEstimator(srv.URL, "sk-test", "", 0)

	got, err := e.EstimateAbsolute(context.Background(), "climbed Everest")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if got != 55.5 {
		t.Errorf("expected 55.5, got %v", got)
	}
	if seen.Model != "gpt-3.5-turbo-0125" {
		t.Errorf("expected default model, got %q", seen.Model)
	}
	if len(seen.Messages) != 2 || !strings.Contains(seen.Messages[1].Content, "climbed Everest") {
		t.Errorf("user message missing text: %+v", seen.Messages)
	}
}

func TestOpenAIEstimator_RelativeIncludesAnchor(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, "61", &seen)
	e := NewOpenAIEstimator(srv.URL, "", "", 0)

	got, err := e.EstimateRelative(context.Background(), "ran a half marathon", "ran a marathon", 70)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if got != 61 {
		t.Errorf("expected 61, got %v", got)
	}
	system := seen.Messages[0].Content
	if !strings.Contains(system, "ran a marathon") || !strings.Contains(system, "70.00") {
		t.Errorf("anchor not in prompt: %s", system)
	}
}

func TestOpenAIEstimator_OutOfRange(t *testing.T) {
	srv := chatServer(t, "250", nil)
	_, err := NewOpenAIEstimator(srv.URL, "", "", 0).EstimateAbsolute(context.Background(), "x")
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestOpenAIEstimator_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewOpenAIEstimator(srv.URL, "", "", 0).EstimateAbsolute(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenAIEstimator_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewOpenAIEstimator(srv.URL, "", "", 0).EstimateAbsolute(context.Background(), "x")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}
