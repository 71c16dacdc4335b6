package env

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Region    string `env:"CHATD_REGION"`
	DebugHTTP bool   `env:"CHATD_DEBUG_HTTP"`
	LogLevel  string `env:"CHATD_LOG_LEVEL,default=info"`

	// Listeners is the number of reuseport TCP listeners, 0 for one per CPU
	Listeners int `env:"CHATD_LISTENERS,default=0"`

	WriteQueue    int `env:"CHATD_WRITE_QUEUE,default=127"`
	MaxLineLength int `env:"CHATD_MAX_LINE_LENGTH,default=4096"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}

	return &config, nil
}
