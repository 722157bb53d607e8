package flagx

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serverFlags = []string{"-a", "-e", "-d", "-k", "-x", "-t"}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "server flags kept, config flag dropped",
			args:    []string{"-c", "kite.json", "-a", ":8000", "-e", "sqlite"},
			allowed: serverFlags,
			want:    []string{"-a", ":8000", "-e", "sqlite"},
		},
		{
			name:    "config flag kept, server flags dropped",
			args:    []string{"-a", ":8000", "--config=kite.json", "-k", "key"},
			allowed: []string{"-c", "-config", "--config"},
			want:    []string{"--config=kite.json"},
		},
		{
			name:    "equals form",
			args:    []string{"-d=postgres://db/kite", "-t=1440"},
			allowed: serverFlags,
			want:    []string{"-d=postgres://db/kite", "-t=1440"},
		},
		{
			name:    "dsn containing equals stays whole",
			args:    []string{"-d", "file:kite.db?_pragma=busy_timeout(5000)"},
			allowed: serverFlags,
			want:    []string{"-d", "file:kite.db?_pragma=busy_timeout(5000)"},
		},
		{
			name:    "flag at end without value",
			args:    []string{"-k"},
			allowed: serverFlags,
			want:    []string{"-k"},
		},
		{
			name:    "next flag is not taken as value",
			args:    []string{"-x", "-k", "key"},
			allowed: serverFlags,
			want:    []string{"-x", "-k", "key"},
		},
		{
			name:    "subcommand positional args ignored",
			args:    []string{"token", "-show"},
			allowed: serverFlags,
			want:    []string{},
		},
		{
			name:    "repeated flag keeps order",
			args:    []string{"-e", "redis", "-e", "memory"},
			allowed: serverFlags,
			want:    []string{"-e", "redis", "-e", "memory"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: serverFlags,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			require.NotNil(t, got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("FilterArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"kitekeeper", "-c", "/etc/kitekeeper/short.json"}
		assert.Equal(t, "/etc/kitekeeper/short.json", ConfigFile())
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"kitekeeper", "-config", "/etc/kitekeeper/long.json"}
		assert.Equal(t, "/etc/kitekeeper/long.json", ConfigFile())
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "")
		os.Args = []string{"kitekeeper", "-a", ":8000", "-e", "memory"}
		assert.Empty(t, ConfigFile())
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		os.Args = []string{"kitekeeper", "-c", "dev.json", "-config", "prod.json"}
		assert.Equal(t, "prod.json", ConfigFile())
	})

	t.Run("falls back to environment", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "/etc/kitekeeper.json")
		os.Args = []string{"kitekeeper"}
		assert.Equal(t, "/etc/kitekeeper.json", ConfigFile())
	})

	t.Run("flag beats environment", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "/etc/kitekeeper.json")
		os.Args = []string{"kitekeeper", "-c", "local.json"}
		assert.Equal(t, "local.json", ConfigFile())
	})
}
