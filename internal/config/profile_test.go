package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, "url: wss://cable.example.com/ws\nuser_id: u1\nclient_id: c1\npassword: p1\n")

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}

	if p.URL != "wss://cable.example.com/ws" {
		t.Errorf("URL = %q", p.URL)
	}

	id := p.Identity()
	if id.UserID != "u1" || id.ClientID != "c1" || id.Password != "p1" {
		t.Errorf("Identity() = %+v", id)
	}
}

func TestLoadProfileMinimal(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, "url: ws://localhost:8080/cable\n"))
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if id := p.Identity(); id.UserID != "" || id.ClientID != "" || id.Password != "" {
		t.Errorf("Identity() = %+v, want empty fields", id)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "missing_url", content: "user_id: u1\n"},
		{name: "bad_scheme", content: "url: ftp://example.com\n"},
		{name: "bad_yaml", content: "url: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadProfile(writeProfile(t, tt.content)); err == nil {
				t.Error("LoadProfile() expected an error")
			}
		})
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadProfile() expected an error")
	}
}
