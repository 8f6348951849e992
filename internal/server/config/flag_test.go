package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-r", "redis://cache:6379/0", "-s", "secret",
			"-t", "30", "-l", "9", "-u", "http://ai.local", "-k", "sk-test", "-m", "test-model", "-w", "20",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddr:          "127.0.0.1:9090",
				DatabaseDSN:           "db",
				RedisURL:              "redis://cache:6379/0",
				SecretKey:             "secret",
				TokenValidityDuration: 30 * time.Minute,
				AccountIDLength:       9,
				AIBaseURL:             "http://ai.local",
				AIAPIKey:              "sk-test",
				AIModel:               "test-model",
				AIRequestTimeout:      20 * time.Second,
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Equal(t, tt.expected, config)
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
