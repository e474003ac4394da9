//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
)

func TestHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		resp := doGet(t, path, "")
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		body := decodeJSON[healthResponse](t, resp)
		resp.Body.Close()
		if body.Status != "ok" {
			t.Errorf("%s: status %q, want ok", path, body.Status)
		}
	}
}

func TestRequestID(t *testing.T) {
	resp := doGet(t, "/livez", "")
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID not generated")
	}

	// A valid client-supplied ID is kept.
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+"/livez", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("X-Request-ID", "it-req-7f3a")

	resp, err = httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "it-req-7f3a" {
		t.Errorf("X-Request-ID: got %q, want it-req-7f3a", got)
	}
}

func TestCORS_PreflightAllowsDeviceHeader(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, baseURL+"/api/cart", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Origin", "http://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "X-Device-ID")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("Access-Control-Allow-Origin missing")
	}
	if resp.Header.Get("Access-Control-Allow-Headers") == "" {
		t.Error("Access-Control-Allow-Headers missing")
	}
}

func TestRateLimit_CountsDown(t *testing.T) {
	resp := doGet(t, "/api/product", "")
	resp.Body.Close()
	if resp.Header.Get("X-RateLimit-Limit") == "" {
		t.Fatal("X-RateLimit-Limit missing")
	}
	first := resp.Header.Get("X-RateLimit-Remaining")
	if first == "" {
		t.Fatal("X-RateLimit-Remaining missing")
	}

	resp = doGet(t, "/api/product", "")
	resp.Body.Close()
	second := resp.Header.Get("X-RateLimit-Remaining")
	if second == first {
		t.Errorf("remaining did not decrease: %s -> %s", first, second)
	}
}
