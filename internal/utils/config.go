package utils

import (
	"time"

	"github.com/gridlab/board-agent/pkg/file"
)

// Config represents the structure of the configuration file. Interval and
// delay fields are whole seconds in YAML; the registry scales them to
// time.Duration when wiring services.
type Config struct {
	CoreAPI struct {
		BaseURL  string        `yaml:"base_url"` // CoreAPI root, e.g. http://localhost/coreapi
		Timeout  time.Duration `yaml:"timeout"`  // HTTP request timeout (in seconds)
		Username string        `yaml:"username"` // Board account username
		Password string        `yaml:"password"` // Board account password
	} `yaml:"coreapi"`

	Identity struct {
		BoardFile string `yaml:"board_file"` // Path to the board identity file
	} `yaml:"identity"`

	Security struct {
		TokenFile  string `yaml:"token_file"`   // Path to the encrypted session token file
		AESKeyFile string `yaml:"aes_key_file"` // Path to the AES key file
	} `yaml:"security"`

	Services struct {
		Registration struct {
			Enabled         bool          `yaml:"enabled"`          // Enable/disable registration service
			MaxRetries      int           `yaml:"max_retries"`      // Maximum number of retry attempts
			BaseDelay       time.Duration `yaml:"base_delay"`       // Initial delay between retries
			MaxBackoff      time.Duration `yaml:"max_backoff"`      // Maximum backoff time for registration retries
			ResponseTimeout time.Duration `yaml:"response_timeout"` // Timeout per registration attempt
		} `yaml:"registration"`

		Poll struct {
			Enabled  bool          `yaml:"enabled"`  // Enable/disable the coefficient poll loop
			Interval time.Duration `yaml:"interval"` // Interval between polls (in seconds)
		} `yaml:"poll"`

		Telemetry struct {
			Enabled  bool          `yaml:"enabled"`  // Enable/disable the power data loop
			Interval time.Duration `yaml:"interval"` // Interval between power submissions (in seconds)
		} `yaml:"telemetry"`

		Equipment struct {
			Enabled bool `yaml:"enabled"` // Enable/disable connected equipment reporting
			Plants  []struct {
				ID       uint32  `yaml:"id"`        // Plant identifier
				SetPower float64 `yaml:"set_power"` // Declared set power in watts
			} `yaml:"plants"`
			Consumers []uint32 `yaml:"consumers"` // Connected consumer identifiers
		} `yaml:"equipment"`

		Metrics struct {
			Enabled  bool          `yaml:"enabled"`  // Enable/disable host diagnostics
			Interval time.Duration `yaml:"interval"` // Interval between samples (in seconds)
		} `yaml:"metrics"`
	} `yaml:"services"`

	Simulator struct {
		Workers int           `yaml:"workers"` // Worker pool size for simulated boards
		Stagger time.Duration `yaml:"stagger"` // Delay between board starts (in seconds)
		Boards  []SimBoard    `yaml:"boards"`  // Boards to simulate
	} `yaml:"simulator"`
}

// SimBoard describes one simulated board for the boardsim command.
type SimBoard struct {
	Name      string `yaml:"name"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	BoardID   uint32 `yaml:"board_id"`
	BoardType string `yaml:"board_type"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
