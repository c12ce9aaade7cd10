package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blueprint.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns default when env not set",
			key:          "BLUEPRINT_TEST_KEY_1",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
		{
			name:         "returns env value when set",
			key:          "BLUEPRINT_TEST_KEY_2",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "trims surrounding whitespace",
			key:          "BLUEPRINT_TEST_KEY_3",
			defaultValue: "default",
			envValue:     "  padded ",
			want:         "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)

			got := GetEnvOrDefault(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("GetEnvOrDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		raw  string
		want Environment
	}{
		{"production", Production},
		{" Staging ", Staging},
		{"TEST", Test},
		{"", Development},
		{"qa", Development},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEnvironment(tt.raw))
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Setenv("BLUEPRINT_TEST_LIST", " a, ,b,,c ")
	assert.Equal(t, []string{"a", "b", "c"}, splitList("BLUEPRINT_TEST_LIST"))
}

func TestResolveAuthConfig(t *testing.T) {
	longToken := "sk_abcdefghijklmnop"

	t.Run("development generates a token", func(t *testing.T) {
		cfg, err := resolveAuthConfig(Development, nil)
		require.NoError(t, err)
		require.Len(t, cfg.Tokens, 1)
		assert.True(t, strings.HasPrefix(cfg.Tokens[0], DevTokenPrefix))
		assert.GreaterOrEqual(t, len(cfg.Tokens[0]), MinTokenLength)
		assert.False(t, cfg.Strict)
	})

	t.Run("test uses the fixed token", func(t *testing.T) {
		cfg, err := resolveAuthConfig(Test, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"test_key"}, cfg.Tokens)
	})

	t.Run("production requires tokens", func(t *testing.T) {
		_, err := resolveAuthConfig(Production, nil)
		assert.Error(t, err)
	})

	t.Run("production rejects short tokens", func(t *testing.T) {
		_, err := resolveAuthConfig(Staging, []string{"short"})
		assert.Error(t, err)
	})

	t.Run("development accepts short tokens", func(t *testing.T) {
		cfg, err := resolveAuthConfig(Development, []string{"short"})
		require.NoError(t, err)
		assert.Equal(t, []string{"short"}, cfg.Tokens)
	})

	t.Run("production is strict", func(t *testing.T) {
		cfg, err := resolveAuthConfig(Production, []string{longToken})
		require.NoError(t, err)
		assert.True(t, cfg.Strict)
		assert.Equal(t, MinTokenLength, cfg.MinTokenLength)
	})
}

func TestLoadProjectMetadata(t *testing.T) {
	t.Run("reads project table", func(t *testing.T) {
		path := writeProjectFile(t, "[project]\nname = \"openai-api-blueprint\"\nversion = \"0.1.0\"\n")

		meta, err := LoadProjectMetadata(path)
		require.NoError(t, err)
		assert.Equal(t, ProjectMetadata{Name: "openai-api-blueprint", Version: "0.1.0"}, meta)
	})

	t.Run("missing file is empty", func(t *testing.T) {
		meta, err := LoadProjectMetadata(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, ProjectMetadata{}, meta)
	})

	t.Run("malformed file fails", func(t *testing.T) {
		path := writeProjectFile(t, "[project\nname = ")

		_, err := LoadProjectMetadata(path)
		assert.Error(t, err)
	})
}

func TestFromEnv(t *testing.T) {
	t.Run("development defaults", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "development")
		t.Setenv("API_AUTH_TOKENS", "tok_aaaaaaaaaaaaaaaa, tok_bbbbbbbbbbbbbbbb")
		t.Setenv("PROJECT_FILE", filepath.Join(t.TempDir(), "absent.toml"))
		t.Setenv("PORT", "")
		t.Setenv("COMPLETION_PROVIDER", "")
		t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
		t.Setenv("TRUST_PROXY_HEADERS", "")
		t.Setenv("STREAM_DELAY_MS", "5")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, Development, cfg.Environment)
		assert.Equal(t, 8000, cfg.Port)
		assert.Equal(t, []string{"tok_aaaaaaaaaaaaaaaa", "tok_bbbbbbbbbbbbbbbb"}, cfg.Auth.Tokens)
		assert.Equal(t, 30, cfg.RateLimit.MaxHits)
		assert.Equal(t, time.Minute, cfg.RateLimit.Window)
		assert.False(t, cfg.RateLimit.TrustProxyHeaders, "proxy headers are untrusted by default")
		assert.Equal(t, ProviderMock, cfg.Provider.Name)
		assert.Equal(t, 5*time.Millisecond, cfg.Provider.StreamDelay)
	})

	t.Run("trust proxy headers", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "development")
		t.Setenv("API_AUTH_TOKENS", "tok_aaaaaaaaaaaaaaaa")
		t.Setenv("PROJECT_FILE", filepath.Join(t.TempDir(), "absent.toml"))
		t.Setenv("COMPLETION_PROVIDER", "")
		t.Setenv("TRUST_PROXY_HEADERS", "true")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.RateLimit.TrustProxyHeaders)
	})

	t.Run("production requires project metadata", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("API_AUTH_TOKENS", "tok_aaaaaaaaaaaaaaaa")
		t.Setenv("PROJECT_FILE", filepath.Join(t.TempDir(), "absent.toml"))
		t.Setenv("COMPLETION_PROVIDER", "")

		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("production with metadata", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("API_AUTH_TOKENS", "tok_aaaaaaaaaaaaaaaa")
		t.Setenv("PROJECT_FILE", writeProjectFile(t, "[project]\nname = \"bp\"\nversion = \"1.0.0\"\n"))
		t.Setenv("COMPLETION_PROVIDER", "")
		t.Setenv("HOST", "127.0.0.1")
		t.Setenv("PORT", "9090")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.Auth.Strict)
		assert.Equal(t, "bp", cfg.Project.Name)
		assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	})

	t.Run("openai provider requires a key", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "test")
		t.Setenv("PROJECT_FILE", filepath.Join(t.TempDir(), "absent.toml"))
		t.Setenv("COMPLETION_PROVIDER", "openai")
		t.Setenv("OPENAI_API_KEY", "")

		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "test")
		t.Setenv("PROJECT_FILE", filepath.Join(t.TempDir(), "absent.toml"))
		t.Setenv("COMPLETION_PROVIDER", "llama")

		_, err := FromEnv()
		assert.Error(t, err)
	})
}
