package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestResolveSecret(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		file    *string
		want    string
		wantErr bool
	}{
		{name: "env only", env: "env-value", want: "env-value"},
		{name: "file only", file: strPtr("file-value\n"), want: "file-value"},
		{name: "file wins over env", env: "env-value", file: strPtr("file-value"), want: "file-value"},
		{name: "neither set", want: ""},
		{name: "trims whitespace", file: strPtr("  secret-value  \n\n"), want: "secret-value"},
		{name: "empty file", file: strPtr(""), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const envName = "CYCLIST_TEST_SECRET"
			t.Setenv(envName, tt.env)
			t.Setenv(envName+"_FILE", "")
			if tt.file != nil {
				t.Setenv(envName+"_FILE", writeSecret(t, *tt.file))
			}

			got, err := ResolveSecret(envName)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveSecret_FileNotFound(t *testing.T) {
	t.Setenv("CYCLIST_TEST_MISSING_FILE", "/nonexistent/path/to/secret")
	if _, err := ResolveSecret("CYCLIST_TEST_MISSING"); err == nil {
		t.Error("expected error when file does not exist")
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("CYCLIST_TEST_API_USER", "admin")
	t.Setenv("CYCLIST_TEST_API_PASS_FILE", writeSecret(t, "hunter2\n"))

	creds, err := LoadCredentials("CYCLIST_TEST_API")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.User != "admin" || creds.Password != "hunter2" {
		t.Errorf("got %+v", creds)
	}
	if !creds.Enabled() {
		t.Error("expected credentials to be enabled")
	}

	if (Credentials{User: "admin"}).Enabled() {
		t.Error("credentials without password must not be enabled")
	}
}

func strPtr(s string) *string { return &s }
