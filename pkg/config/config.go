package config

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for merkledrop configuration
const (
	EnvInputPath    = "MERKLEDROP_INPUT"
	EnvOutputPath   = "MERKLEDROP_OUTPUT"
	EnvProofDir     = "MERKLEDROP_PROOF_DIR"
	EnvStoreBackend = "MERKLEDROP_STORE_BACKEND"
	EnvDataDir      = "MERKLEDROP_DATA_DIR"
	EnvRedisAddress = "MERKLEDROP_REDIS_ADDRESS"
	EnvRedisDB      = "MERKLEDROP_REDIS_DB"
	EnvVerbose      = "MERKLEDROP_VERBOSE"
)

// StoreBackend names a distributor persistence implementation.
type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendBadger StoreBackend = "badger"
	StoreBackendRedis  StoreBackend = "redis"
)

// GeneratorConfig configures the tree-generation CLI path.
type GeneratorConfig struct {
	// InputPath is the allocation source file.
	InputPath string `json:"input_path"`
	// OutputPath receives the generated root (hex).
	OutputPath string `json:"output_path"`
	// ProofDir, when set, receives one proof JSON file per recipient.
	ProofDir string `json:"proof_dir,omitempty"`
}

// Validate checks the generator configuration.
func (c *GeneratorConfig) Validate() error {
	var allErrors field.ErrorList
	if c.InputPath == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("inputPath"), "allocation input file is required"))
	}
	if c.OutputPath == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("outputPath"), "root output path is required"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// StoreConfig configures the distributor persistence backend.
type StoreConfig struct {
	Backend      StoreBackend `json:"backend"`
	DataDir      string       `json:"data_dir,omitempty"`
	RedisAddress string       `json:"redis_address,omitempty"`
	RedisDB      int          `json:"redis_db,omitempty"`
}

// Validate checks the store configuration.
func (c *StoreConfig) Validate() error {
	var allErrors field.ErrorList
	switch c.Backend {
	case StoreBackendMemory:
	case StoreBackendBadger:
		if c.DataDir == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("dataDir"), "badger backend requires a data directory"))
		}
	case StoreBackendRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "redis backend requires an address"))
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("redisDB"), c.RedisDB, "must be between 0 and 15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("backend"), c.Backend,
			[]string{string(StoreBackendMemory), string(StoreBackendBadger), string(StoreBackendRedis)}))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// SupportedStoreBackendsString returns the supported backends for CLI help.
func SupportedStoreBackendsString() string {
	return fmt.Sprintf("%s, %s, %s", StoreBackendMemory, StoreBackendBadger, StoreBackendRedis)
}
