package logger

import (
	"net/http"
	"testing"
)

func TestMaskAuthorization(t *testing.T) {
	if got := MaskAuthorization("Bearer abcdef1234"); got != "Bearer ****1234" {
		t.Fatalf("expected masked bearer token, got %q", got)
	}
	if got := MaskAuthorization("raw-api-key-7777"); got != "****7777" {
		t.Fatalf("expected masked raw credential, got %q", got)
	}
	if got := MaskAuthorization("  "); got != "" {
		t.Fatalf("expected empty for blank input, got %q", got)
	}
}

func TestMaskCookie(t *testing.T) {
	got := MaskCookie("session=abcdef1234; other=xyz")
	want := "session=****1234; other=****xyz"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer secret-value-9999")
	headers.Set("Cookie", "session=abcdef1234")
	headers.Set("Content-Type", "application/json")

	masked := MaskHeaders(headers)
	if masked["Authorization"] != "Bearer ****9999" {
		t.Fatalf("expected masked authorization, got %q", masked["Authorization"])
	}
	if masked["Cookie"] != "session=****1234" {
		t.Fatalf("expected masked cookie, got %q", masked["Cookie"])
	}
	if masked["Content-Type"] != "application/json" {
		t.Fatalf("expected content type untouched, got %q", masked["Content-Type"])
	}
}
