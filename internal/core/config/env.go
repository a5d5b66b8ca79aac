package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: AUTOSG_[SECTION]_[KEY] (e.g., AUTOSG_CACHE_BACKEND).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.GrammarsPath, "AUTOSG_GRAMMARS_PATH")
	setEnvBoolPtr(&cfg.GrammarVerification.Enabled, "AUTOSG_GRAMMAR_VERIFICATION_ENABLED")

	// Annotate
	setEnvString(&cfg.Annotate.Style, "AUTOSG_ANNOTATE_STYLE")
	setEnvString(&cfg.Annotate.Suffix, "AUTOSG_ANNOTATE_SUFFIX")
	setEnvBool(&cfg.Annotate.ContinuousIDs, "AUTOSG_ANNOTATE_CONTINUOUS_IDS")

	// Cache
	setEnvBoolPtr(&cfg.Cache.Enabled, "AUTOSG_CACHE_ENABLED")
	setEnvString(&cfg.Cache.Backend, "AUTOSG_CACHE_BACKEND")
	setEnvString(&cfg.Cache.Path, "AUTOSG_CACHE_PATH")
	setEnvInt(&cfg.Cache.MemoryEntries, "AUTOSG_CACHE_MEMORY_ENTRIES")
	setEnvDuration(&cfg.Cache.BusyTimeout, "AUTOSG_CACHE_BUSY_TIMEOUT")

	// LLM
	setEnvString(&cfg.LLM.Model, "AUTOSG_LLM_MODEL")
	setEnvString(&cfg.LLM.APIKeyEnv, "AUTOSG_LLM_API_KEY_ENV")
	setEnvFloat64(&cfg.LLM.RequestsPerSecond, "AUTOSG_LLM_REQUESTS_PER_SECOND")
	setEnvInt(&cfg.LLM.Burst, "AUTOSG_LLM_BURST")
	setEnvString(&cfg.LLM.SecretPolicy, "AUTOSG_LLM_SECRET_POLICY")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "AUTOSG_WATCH_DEBOUNCE")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "AUTOSG_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "AUTOSG_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
