package utils

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// --- APIError ---

func TestAPIError_Error(t *testing.T) {
	ae := &APIError{Code: 500, Message: "internal"}
	if ae.Error() != "internal" {
		t.Errorf("expected %q, got %q", "internal", ae.Error())
	}
}

// --- DoAPI ---

func TestDoAPI_Success_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	body, err := DoAPI(context.Background(), srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, http.StatusOK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestDoAPI_POST_SetsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", ct)
		}
		reqBody, _ := io.ReadAll(r.Body)
		if string(reqBody) != `{"type":"QoS"}` {
			t.Errorf("unexpected request body: %s", reqBody)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	body, err := DoAPI(context.Background(), srv.Client(), http.MethodPost, srv.URL+"/api/intents", []byte(`{"type":"QoS"}`), http.StatusCreated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"id":1}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestDoAPI_GET_NoContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			t.Errorf("expected no Content-Type for GET without body, got %q", ct)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := DoAPI(context.Background(), srv.Client(), http.MethodGet, srv.URL, nil, http.StatusOK); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDoAPI_StatusMismatch_ReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := DoAPI(context.Background(), srv.Client(), http.MethodGet, srv.URL, nil, http.StatusOK)
	if err == nil {
		t.Fatal("expected error")
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if ae.Code != http.StatusInternalServerError {
		t.Errorf("expected code 500, got %d", ae.Code)
	}
	if !strings.Contains(ae.Message, "boom") {
		t.Errorf("expected message to contain 'boom', got %q", ae.Message)
	}
}

func TestDoAPI_ConnectionError(t *testing.T) {
	hc := &http.Client{Timeout: 100 * time.Millisecond}
	_, err := DoAPI(context.Background(), hc, http.MethodGet, "http://127.0.0.1:1/nope", nil, http.StatusOK)
	if err == nil {
		t.Fatal("expected connection error")
	}
	// Transport failure, not a status mismatch.
	var ae *APIError
	if errors.As(err, &ae) {
		t.Errorf("expected non-APIError, got APIError{%d}", ae.Code)
	}
}

func TestDoAPI_InvalidURL(t *testing.T) {
	if _, err := DoAPI(context.Background(), http.DefaultClient, http.MethodGet, "://bad", nil, http.StatusOK); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

// --- CheckHTTP ---

func TestCheckHTTP_2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ok, err := CheckHTTP(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected 200 to satisfy the check")
	}
}

func TestCheckHTTP_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ok, err := CheckHTTP(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected 503 to fail the check")
	}
}

func TestCheckHTTP_ConnectionRefused(t *testing.T) {
	hc := &http.Client{Timeout: 100 * time.Millisecond}
	ok, err := CheckHTTP(context.Background(), hc, "http://127.0.0.1:1/")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if ok {
		t.Error("refused connection cannot satisfy the check")
	}
}
