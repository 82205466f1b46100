// Package config loads environment-driven configuration into tagged structs.
//
// Values are parsed with github.com/caarlos0/env/v11. On first use a .env file
// in the working directory is loaded through github.com/joho/godotenv if it
// exists; variables already present in the process environment win.
//
//	type APIConfig struct {
//	    BaseURL string        `env:"API_BASE_URL,required"`
//	    Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
//	}
//
//	var cfg APIConfig
//	config.MustLoad(&cfg)
//
// Each struct type is parsed once per process; later calls return the cached
// copy. ResetCache drops the cache, which tests use between cases.
package config
