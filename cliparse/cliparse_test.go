// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
)

func TestParseFlags_EnvVars(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("FRONTEND_URL", "https://class.example.com")
	os.Setenv("TEACHER_NAME", "Ms. Rivera")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabasePostgres {
		t.Errorf("expected postgres inferred from URL, got %s", cfg.DatabaseType)
	}
	if cfg.FrontendURL != "https://class.example.com" {
		t.Errorf("unexpected frontend URL %s", cfg.FrontendURL)
	}
	if cfg.TeacherName != "Ms. Rivera" {
		t.Errorf("unexpected teacher name %s", cfg.TeacherName)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabaseSQLite {
		t.Errorf("expected sqlite for a file DSN, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/polling")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabaseMongo {
		t.Errorf("expected mongo, got %s", cfg.DatabaseType)
	}
	if cfg.FrontendURL != "*" {
		t.Errorf("expected wildcard origin, got %s", cfg.FrontendURL)
	}
	if cfg.TeacherName != "Teacher" {
		t.Errorf("expected default teacher name, got %s", cfg.TeacherName)
	}
	if cfg.RedisURL != "" {
		t.Errorf("expected relay disabled by default, got %s", cfg.RedisURL)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing database URL", nil, []string{}},
		{"invalid port", map[string]string{"PORT": "abc", "DATABASE_URL": "x.db"}, []string{}},
		{"unknown database type", nil, []string{"-d", "x.db", "-t", "oracle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer os.Clearenv()

			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestInferDatabaseType(t *testing.T) {
	tests := map[string]string{
		"mongodb://localhost/polling":                DatabaseMongo,
		"mongodb+srv://cluster0.example.net/polling": DatabaseMongo,
		"postgres://u:p@localhost/polling":           DatabasePostgres,
		"postgresql://u:p@localhost/polling":         DatabasePostgres,
		"polling.db":                                 DatabaseSQLite,
		"file:polling.db?_pragma=busy_timeout(5000)": DatabaseSQLite,
	}
	for url, want := range tests {
		if got := InferDatabaseType(url); got != want {
			t.Errorf("InferDatabaseType(%q) = %s, want %s", url, got, want)
		}
	}
}
