package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-r string   Redis URL for challenge slots
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-l int      external account identifier length, digits
//	-u string   AI backend base URL
//	-k string   AI backend API key
//	-m string   AI backend model name
//	-w int      AI backend request timeout, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and converted to time.Duration.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-s", "-t", "-l", "-u", "-k", "-m", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL for challenge slots")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityDuration := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")

	fs.IntVar(&config.AccountIDLength, "l", config.AccountIDLength, "account identifier length (digits)")
	fs.StringVar(&config.AIBaseURL, "u", config.AIBaseURL, "AI backend base URL")
	fs.StringVar(&config.AIAPIKey, "k", config.AIAPIKey, "AI backend API key")
	fs.StringVar(&config.AIModel, "m", config.AIModel, "AI backend model")

	aiRequestTimeout := fs.Int("w", int(config.AIRequestTimeout.Seconds()), "ai_request_timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDuration) * time.Minute
	config.AIRequestTimeout = time.Duration(*aiRequestTimeout) * time.Second
}
