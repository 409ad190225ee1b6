package extension

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/larder"
	"github.com/xraph/larder/store/memory"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "larder.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Config
	}{
		{
			name: "flat",
			body: `
profile: bakery
allow_negative_stock: true
archive_retention: 48h
currency: eur
store:
  driver: sqlite
  dsn: /var/lib/larder.db
`,
			want: Config{
				Profile:            "bakery",
				AllowNegativeStock: true,
				ArchiveRetention:   48 * time.Hour,
				Currency:           "eur",
				Store:              StoreConfig{Driver: DriverSQLite, DSN: "/var/lib/larder.db"},
			},
		},
		{
			name: "nested",
			body: `
larder:
  profile: kitchen
  disable_auto_save: true
`,
			want: Config{
				Profile:          "kitchen",
				DisableAutoSave:  true,
				ArchiveRetention: 30 * 24 * time.Hour,
				Currency:         "xof",
				Store:            StoreConfig{Driver: DriverMemory},
			},
		},
		{
			name: "empty",
			body: "",
			want: DefaultConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadConfigFile(writeFile(t, tt.body))
			if err != nil {
				t.Fatalf("LoadConfigFile: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
	if _, err := LoadConfigFile(writeFile(t, "profile: [unclosed")); err == nil {
		t.Error("bad yaml: expected error")
	}

	e := New(WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	if err := e.loadConfiguration(); err == nil {
		t.Error("loadConfiguration should report the unreadable file")
	}
}

func TestMergeConfigurations(t *testing.T) {
	file := Config{Profile: "from-file", Store: StoreConfig{Driver: DriverRedis, DSN: "localhost:6379"}}
	prog := Config{
		Profile:          "from-code",
		Currency:         "usd",
		DisableMigrate:   true,
		ArchiveRetention: time.Hour,
		Store:            StoreConfig{Driver: DriverSQLite},
	}

	got := mergeConfigurations(file, prog)

	if got.Profile != "from-file" {
		t.Errorf("Profile = %q, file should win", got.Profile)
	}
	if got.Currency != "usd" {
		t.Errorf("Currency = %q, code should fill the gap", got.Currency)
	}
	if !got.DisableMigrate {
		t.Error("DisableMigrate from code was dropped")
	}
	if got.ArchiveRetention != time.Hour {
		t.Errorf("ArchiveRetention = %v", got.ArchiveRetention)
	}
	if got.Store.Driver != DriverRedis {
		t.Errorf("Store.Driver = %q, file should win", got.Store.Driver)
	}
}

func TestBuildLarderOpts(t *testing.T) {
	cfg := mergeWithDefaults(Config{Profile: "shop", Currency: "eur", AllowNegativeStock: true})

	l := larder.New(memory.New(), buildLarderOpts(cfg, []larder.Option{larder.WithCurrency("gbp")})...)

	if l.Profile() != "shop" {
		t.Errorf("Profile = %q", l.Profile())
	}
	if !l.NegativeStockAllowed() {
		t.Error("negative stock not enabled")
	}
	if l.Currency() != "gbp" {
		t.Errorf("Currency = %q, pass-through option should win", l.Currency())
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     StoreConfig
		wantErr bool
	}{
		{"default", StoreConfig{}, false},
		{"memory", StoreConfig{Driver: "Memory"}, false},
		{"sqlite file", StoreConfig{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "larder.db")}, false},
		{"sqlite without dsn", StoreConfig{Driver: DriverSQLite}, true},
		{"postgres without dsn", StoreConfig{Driver: DriverPostgres}, true},
		{"mongo without dsn", StoreConfig{Driver: DriverMongo}, true},
		{"redis without dsn", StoreConfig{Driver: DriverRedis}, true},
		{"s3 without bucket", StoreConfig{Driver: DriverS3}, true},
		{"unknown", StoreConfig{Driver: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := OpenStore(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			defer s.Close()

			if err := s.Migrate(ctx); err != nil {
				t.Fatalf("Migrate: %v", err)
			}
			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping: %v", err)
			}
		})
	}
}
