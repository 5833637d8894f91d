package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("authorization = %q", got)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer srv.Close()

	var out map[string]string
	if err := Post(context.Background(), NewClient(0), srv.URL, "k", map[string]string{"msg": "hi"}, &out); err != nil {
		t.Fatal(err)
	}
	if out["echo"] != "hi" {
		t.Errorf("echo = %q", out["echo"])
	}
}

func TestPost_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		decode  bool
		message string
	}{
		{"status", http.StatusTooManyRequests, "slow down", false, "status 429: slow down"},
		{"bad json", http.StatusOK, "not json", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out map[string]any
			err := Post(context.Background(), NewClient(time.Second), srv.URL, "", struct{}{}, &out)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrDecode) != tt.decode {
				t.Errorf("ErrDecode = %v, want %v (%v)", errors.Is(err, ErrDecode), tt.decode, err)
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q missing %q", err, tt.message)
			}
		})
	}
}
