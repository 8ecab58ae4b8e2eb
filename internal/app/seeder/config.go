package seeder

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds seeding settings. Flags given on the command line override
// the environment.
type Config struct {
	UserID    string `env:"SEED_USER_ID"`
	NotesPath string `env:"SEED_NOTES_PATH"`
	SalesPath string `env:"SEED_SALES_PATH"`
	DryRun    bool   `env:"SEED_DRY_RUN"`
}

// LoadConfig reads seeding configuration from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("seeder config: read env: %w", err)
	}
	return &cfg, nil
}
