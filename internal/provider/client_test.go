package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type capturedRequest struct {
	path  string
	token string
	body  map[string]string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.token = r.Header.Get("Token")

		body := map[string]string{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		captured.body = body

		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, captured
}

func TestHTTPClient_SendText(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK)
	client := NewHTTPClient(server.URL, "secret-token", 2*time.Second)

	err := client.SendText(context.Background(), "5599999", "Olá Ana")
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	if captured.path != "/chat/send/text" {
		t.Errorf("path = %q, want %q", captured.path, "/chat/send/text")
	}
	if captured.token != "secret-token" {
		t.Errorf("Token header = %q, want %q", captured.token, "secret-token")
	}
	if captured.body["Phone"] != "5599999" || captured.body["Body"] != "Olá Ana" {
		t.Errorf("body = %v, want Phone and Body fields", captured.body)
	}
}

func TestHTTPClient_SendDocument(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK)
	client := NewHTTPClient(server.URL+"/", "secret-token", 2*time.Second)

	err := client.SendDocument(context.Background(), "5599999", "https://files/doc.pdf", "Olá Ana", "promo.pdf")
	if err != nil {
		t.Fatalf("SendDocument() error = %v", err)
	}

	if captured.path != "/chat/send/document" {
		t.Errorf("path = %q, want %q", captured.path, "/chat/send/document")
	}

	want := map[string]string{
		"Phone":    "5599999",
		"Document": "https://files/doc.pdf",
		"Caption":  "Olá Ana",
		"FileName": "promo.pdf",
	}
	for field, value := range want {
		if captured.body[field] != value {
			t.Errorf("body[%q] = %q, want %q", field, captured.body[field], value)
		}
	}
}

func TestHTTPClient_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "bad request", status: http.StatusBadRequest},
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newCaptureServer(t, tt.status)
			client := NewHTTPClient(server.URL, "token", 2*time.Second)

			if err := client.SendText(context.Background(), "5599999", "hi"); err == nil {
				t.Errorf("SendText() with status %d expected error, got nil", tt.status)
			}
		})
	}
}

func TestHTTPClient_NetworkError(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK)
	server.Close()

	client := NewHTTPClient(server.URL, "token", 1*time.Second)
	if err := client.SendText(context.Background(), "5599999", "hi"); err == nil {
		t.Error("SendText() against closed server expected error, got nil")
	}
}
