package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/flagx"
	"github.com/dmitrijs2005/chatgate/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "1h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	RedisURL              string         `json:"redis_url"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	ChallengeTTL          timex.Duration `json:"challenge_ttl"`
	AccountIDLength       int            `json:"account_id_length"`
	AIBaseURL             string         `json:"ai_base_url"`
	AIAPIKey              string         `json:"ai_api_key"`
	AIModel               string         `json:"ai_model"`
	AIRequestTimeout      timex.Duration `json:"ai_request_timeout"`
	SystemPrompt          string         `json:"system_prompt"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path comes from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics: a half-applied config is worse
// than a refused start.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.RedisURL = c.RedisURL
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.ChallengeTTL = time.Duration(c.ChallengeTTL.Duration)
	config.AccountIDLength = c.AccountIDLength
	config.AIBaseURL = c.AIBaseURL
	config.AIAPIKey = c.AIAPIKey
	config.AIModel = c.AIModel
	config.AIRequestTimeout = time.Duration(c.AIRequestTimeout.Duration)
	config.SystemPrompt = c.SystemPrompt
}
