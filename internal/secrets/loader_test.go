package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("HIRE_LABOR_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "HIRE_LABOR_TEST_KEY"}, want: "from-file"},
		{name: "inline before env", src: Source{Value: " inline ", Env: "HIRE_LABOR_TEST_KEY"}, want: "inline"},
		{name: "env", src: Source{Env: "HIRE_LABOR_TEST_KEY"}, want: "from-env"},
		{name: "unset env", src: Source{Name: "api key", Env: "HIRE_LABOR_TEST_UNSET"}, wantErr: "api key is not configured"},
		{name: "empty file", src: Source{Name: "api key", File: emptyFile, Value: "inline"}, wantErr: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "absent")}, wantErr: "reading secret from file"},
		{name: "nothing", src: Source{}, wantErr: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestConfigured(t *testing.T) {
	t.Setenv("HIRE_LABOR_TEST_KEY", "x")

	if Configured(Source{}) {
		t.Fatal("empty source must not be configured")
	}
	if Configured(Source{Env: "HIRE_LABOR_TEST_UNSET"}) {
		t.Fatal("unset env must not be configured")
	}
	if !Configured(Source{Env: "HIRE_LABOR_TEST_KEY"}) {
		t.Fatal("set env must be configured")
	}
	if !Configured(Source{File: "/some/file"}) {
		t.Fatal("file must be configured")
	}
}
