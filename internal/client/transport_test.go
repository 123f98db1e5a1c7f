package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

func compressGzip(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func compressBrotli(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func compressZstd(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	// zstd.NewWriter with default options never fails
	w, _ := zstd.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func TestCompressionTransport_Decodes(t *testing.T) {
	payload := []byte(`[{"weekday":{"en":"Mon","cn":"星期一","ja":"月耀日","id":1},"items":[]}]`)

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{name: "gzip", encoding: "gzip", body: compressGzip(t, payload)},
		{name: "brotli", encoding: "br", body: compressBrotli(t, payload)},
		{name: "zstd", encoding: "zstd", body: compressZstd(t, payload)},
		{name: "identity", encoding: "", body: payload},
		{name: "whitespace and case", encoding: " GZIP ", body: compressGzip(t, payload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Accept-Encoding"); got != acceptEncoding {
					t.Errorf("Expected Accept-Encoding %q, got %q", acceptEncoding, got)
				}
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			httpClient := &http.Client{Transport: newCompressionTransport(nil)}
			resp, err := httpClient.Get(server.URL)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("Failed to read body: %v", err)
			}
			if !bytes.Equal(body, payload) {
				t.Errorf("Expected body %q, got %q", payload, body)
			}
			if resp.Header.Get("Content-Encoding") != "" {
				t.Errorf("Expected Content-Encoding to be removed, got %q", resp.Header.Get("Content-Encoding"))
			}
		})
	}
}

func TestCompressionTransport_PreservesExplicitAcceptEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Encoding"); got != "identity" {
			t.Errorf("Expected caller's Accept-Encoding to be kept, got %q", got)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := (&http.Client{Transport: newCompressionTransport(nil)}).Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
}

func TestCompressionTransport_UnknownEncodingPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "compress")
		_, _ = w.Write([]byte("raw"))
	}))
	defer server.Close()

	resp, err := (&http.Client{Transport: newCompressionTransport(nil)}).Get(server.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "raw" {
		t.Errorf("Expected raw body, got %q", body)
	}
	if resp.Header.Get("Content-Encoding") != "compress" {
		t.Errorf("Expected unknown Content-Encoding to be kept, got %q", resp.Header.Get("Content-Encoding"))
	}
}

func TestOutermostEncoding(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"gzip", "gzip"},
		{"gzip, br", "br"},
		{" ZSTD ", "zstd"},
	}
	for _, tt := range tests {
		if got := outermostEncoding(tt.header); got != tt.want {
			t.Errorf("outermostEncoding(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestRateLimitTransport_Disabled(t *testing.T) {
	base := http.DefaultTransport
	if got := newRateLimitTransport(base, 0); got != base {
		t.Error("Expected non-positive rate to return the next transport unchanged")
	}
}

func TestRateLimitTransport_WaitsForToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	httpClient := &http.Client{Transport: newRateLimitTransport(http.DefaultTransport, 10)}

	start := time.Now()
	for i := 0; i < 12; i++ {
		resp, err := httpClient.Get(server.URL)
		if err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
		resp.Body.Close()
	}
	// Burst of 10, then two more tokens at 100ms each.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("Expected limiter to delay requests, took %v", elapsed)
	}
}

func TestRateLimitTransport_ContextCanceled(t *testing.T) {
	transport := newRateLimitTransport(http.DefaultTransport, 0.001).(*rateLimitTransport)
	transport.limiter.Allow() // drain the single burst token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1:1", nil)

	if _, err := transport.RoundTrip(req); err == nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
