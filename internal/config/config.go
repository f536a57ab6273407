package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"shelf-vision/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"

	IDSequence = "sequence"
	IDUUID     = "uuid"

	MatcherExact    = "exact"
	MatcherContains = "contains"

	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

type Config struct {
	AppPort string
	AppName string
	Env     string

	StoreBackend string
	MongoURI     string
	MongoDBName  string
	IDStrategy   string

	InferenceHTTP          string
	InferenceTimeoutMs     int64
	InferenceMinConfidence float64
	DetectionMaxDimension  int64
	DetectionMaxPixels     int64
	UploadMaxBytes         int64
	LabelMatcher           string
	AnnotateUnmatched      bool

	RedisAddr            string
	DetectionCacheTTLSec int64

	ExternalGRPC     string
	ExternalHTTP     string
	ClientMaxSleepMs int64

	TraceExporter          string
	RemoteLogHttpURI       string
	RemoteTraceRpcURI      string
	RemoteProfilingHttpURI string
}

// SafeConfig is the loggable subset of Config (no connection strings).
type SafeConfig struct {
	AppPort                string  `json:"app_port"`
	AppName                string  `json:"app_name"`
	Env                    string  `json:"env"`
	StoreBackend           string  `json:"store_backend"`
	MongoDBName            string  `json:"mongo_db_name"`
	IDStrategy             string  `json:"id_strategy"`
	InferenceHTTP          string  `json:"inference_http"`
	InferenceTimeoutMs     int64   `json:"inference_timeout_ms"`
	InferenceMinConfidence float64 `json:"inference_min_confidence"`
	DetectionMaxDimension  int64   `json:"detection_max_dimension"`
	DetectionMaxPixels     int64   `json:"detection_max_pixels"`
	UploadMaxBytes         int64   `json:"upload_max_bytes"`
	LabelMatcher           string  `json:"label_matcher"`
	AnnotateUnmatched      bool    `json:"annotate_unmatched"`
	DetectionCacheEnabled  bool    `json:"detection_cache_enabled"`
	DetectionCacheTTLSec   int64   `json:"detection_cache_ttl_sec"`
	ExternalGRPC           string  `json:"external_grpc"`
	ExternalHTTP           string  `json:"external_http"`
	TraceExporter          string  `json:"trace_exporter"`
	RemoteLogHttpURI       string  `json:"remote_log_http_uri"`
	RemoteTraceRpcURI      string  `json:"remote_trace_rpc_uri"`
	RemoteProfilingHttpURI string  `json:"remote_profiling_http_uri"`
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		AppPort:                c.AppPort,
		AppName:                c.AppName,
		Env:                    c.Env,
		StoreBackend:           c.StoreBackend,
		MongoDBName:            c.MongoDBName,
		IDStrategy:             c.IDStrategy,
		InferenceHTTP:          c.InferenceHTTP,
		InferenceTimeoutMs:     c.InferenceTimeoutMs,
		InferenceMinConfidence: c.InferenceMinConfidence,
		DetectionMaxDimension:  c.DetectionMaxDimension,
		DetectionMaxPixels:     c.DetectionMaxPixels,
		UploadMaxBytes:         c.UploadMaxBytes,
		LabelMatcher:           c.LabelMatcher,
		AnnotateUnmatched:      c.AnnotateUnmatched,
		DetectionCacheEnabled:  c.RedisAddr != "",
		DetectionCacheTTLSec:   c.DetectionCacheTTLSec,
		ExternalGRPC:           c.ExternalGRPC,
		ExternalHTTP:           c.ExternalHTTP,
		TraceExporter:          c.TraceExporter,
		RemoteLogHttpURI:       c.RemoteLogHttpURI,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
	}
}

// IsProduction enables graceful shutdown in the servers.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// StructAttrs("data", cfg) ➜ []slog.Attr{ slog.String("data.app_port", "3001"), ... }
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		key := prefix + "." + jsonKey(t.Field(i))
		fv := v.Field(i)

		switch fv.Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, fv.String()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, fv.Int()))
		case reflect.Float64, reflect.Float32:
			attrs = append(attrs, slog.Float64(key, fv.Float()))
		case reflect.Bool:
			attrs = append(attrs, slog.Bool(key, fv.Bool()))
		default:
			attrs = append(attrs, slog.Any(key, fv.Interface()))
		}
	}
	return attrs
}

func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

var log = logger.Instance()

func envString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envInt64(name string, def int64) int64 {
	val := os.Getenv(name)
	if val == "" {
		return def
	}
	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil || num < 0 {
		log.Warn("Invalid integer env, using default",
			slog.String("name", name), slog.String("value", val), slog.Int64("default", def))
		return def
	}
	return num
}

func envFloat(name string, def float64) float64 {
	val := os.Getenv(name)
	if val == "" {
		return def
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Warn("Invalid float env, using default",
			slog.String("name", name), slog.String("value", val), slog.Float64("default", def))
		return def
	}
	return num
}

func envBool(name string, def bool) bool {
	val := os.Getenv(name)
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Warn("Invalid bool env, using default",
			slog.String("name", name), slog.String("value", val), slog.Bool("default", def))
		return def
	}
	return b
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Load reads .env (optional) and the process environment. The returned error
// lists every missing or invalid variable.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}

	cfg := &Config{
		AppPort: os.Getenv("APP_PORT"),
		AppName: os.Getenv("APP_NAME"),
		Env:     os.Getenv("ENV"),

		StoreBackend: strings.ToLower(envString("STORE_BACKEND", StoreMemory)),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDBName:  os.Getenv("MONGO_DB_NAME"),
		IDStrategy:   strings.ToLower(envString("ID_STRATEGY", IDSequence)),

		InferenceHTTP:          os.Getenv("INFERENCE_HTTP"),
		InferenceTimeoutMs:     envInt64("INFERENCE_TIMEOUT_MS", 30000),
		InferenceMinConfidence: envFloat("INFERENCE_MIN_CONFIDENCE", 0),
		DetectionMaxDimension:  envInt64("DETECTION_MAX_DIMENSION", 1024),
		DetectionMaxPixels:     envInt64("DETECTION_MAX_PIXELS", 50_000_000),
		UploadMaxBytes:         envInt64("UPLOAD_MAX_BYTES", 50<<20),
		LabelMatcher:           strings.ToLower(envString("LABEL_MATCHER", MatcherExact)),
		AnnotateUnmatched:      envBool("ANNOTATE_UNMATCHED", true),

		RedisAddr:            os.Getenv("REDIS_ADDR"),
		DetectionCacheTTLSec: envInt64("DETECTION_CACHE_TTL_SEC", 300),

		ExternalGRPC:     os.Getenv("EXTERNAL_GRPC"),
		ExternalHTTP:     os.Getenv("EXTERNAL_HTTP"),
		ClientMaxSleepMs: envInt64("CLIENT_MAX_SLEEP_MS", 1000),

		TraceExporter:          strings.ToLower(envString("TRACE_EXPORTER", ExporterOTLP)),
		RemoteLogHttpURI:       os.Getenv("REMOTE_LOG_HTTP_URI"),
		RemoteTraceRpcURI:      os.Getenv("REMOTE_TRACE_RPC_URI"),
		RemoteProfilingHttpURI: os.Getenv("REMOTE_PROFILING_HTTP_URI"),
	}

	var missing, invalid []string
	if cfg.AppPort == "" {
		missing = append(missing, "APP_PORT")
	}
	if cfg.AppName == "" {
		missing = append(missing, "APP_NAME")
	}
	if !oneOf(cfg.StoreBackend, StoreMemory, StoreMongo) {
		invalid = append(invalid, "STORE_BACKEND")
	}
	if cfg.StoreBackend == StoreMongo {
		if cfg.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
		if cfg.MongoDBName == "" {
			missing = append(missing, "MONGO_DB_NAME")
		}
	}
	if !oneOf(cfg.IDStrategy, IDSequence, IDUUID) {
		invalid = append(invalid, "ID_STRATEGY")
	}
	if !oneOf(cfg.LabelMatcher, MatcherExact, MatcherContains) {
		invalid = append(invalid, "LABEL_MATCHER")
	}
	if !oneOf(cfg.TraceExporter, ExporterOTLP, ExporterStdout, ExporterNone) {
		invalid = append(invalid, "TRACE_EXPORTER")
	}
	if cfg.InferenceMinConfidence < 0 || cfg.InferenceMinConfidence > 1 {
		invalid = append(invalid, "INFERENCE_MIN_CONFIDENCE")
	}

	if len(missing) > 0 || len(invalid) > 0 {
		return cfg, &Error{Missing: missing, Invalid: invalid}
	}
	return cfg, nil
}

// Error reports every missing or invalid variable at once.
type Error struct {
	Missing []string
	Invalid []string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("config: %s", strings.Join(parts, "; "))
}

var (
	configInstance *Config
	configOnce     sync.Once
)

// Instance loads the configuration once and exits the process when it is unusable.
func Instance() *Config {
	configOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Error("Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}

		if cfg.RemoteLogHttpURI == "" {
			log.Warn("Missing REMOTE_LOG_HTTP_URI will skip sending log")
		}
		if cfg.TraceExporter == ExporterOTLP && cfg.RemoteTraceRpcURI == "" {
			log.Warn("Missing REMOTE_TRACE_RPC_URI will skip sending trace")
		}
		if cfg.RemoteProfilingHttpURI == "" {
			log.Warn("Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
		}

		attrs := StructAttrs("data", cfg.ToSafeConfig())
		args := make([]any, len(attrs))
		for i, a := range attrs {
			args[i] = a
		}
		log.Info("Configuration loaded successfully", args...)

		configInstance = cfg
	})

	return configInstance
}
