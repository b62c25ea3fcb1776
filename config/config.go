package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio.
type Config struct {
	Ledger     LedgerConfig     `yaml:"ledger"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Storage    StorageConfig    `yaml:"storage"`
	Settlement SettlementConfig `yaml:"settlement"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// LedgerConfig describe el boundary hacia el nodo Qubic.
type LedgerConfig struct {
	NodeIP          string `yaml:"node_ip"`
	NodePort        int    `yaml:"node_port"`
	ContractAddress string `yaml:"contract_address"`
	CLIPath         string `yaml:"cli_path"`
	Seed            string `yaml:"seed"` // credencial de firma, solo vía env en producción
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// OracleConfig contiene el endpoint del oráculo de resolución.
type OracleConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"` // normalmente vía GROQ_API_KEY
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig controla dónde se persisten las entidades.
type StorageConfig struct {
	Backend string `yaml:"backend"` // mem | sqlite
	DSN     string `yaml:"dsn"`     // ruta al archivo SQLite, o ":memory:"
}

// SettlementConfig controla el orquestador de liquidación.
type SettlementConfig struct {
	QueueSize           int `yaml:"queue_size"`
	ResolveDelaySeconds int `yaml:"resolve_delay_seconds"` // margen antes de llamar al oráculo
}

// MetricsConfig controla el sidecar de /metrics y /healthz.
type MetricsConfig struct {
	Port string `yaml:"port"` // vacío = deshabilitado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del entorno sobreescriben los del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// LedgerTimeout devuelve el timeout por invocación del CLI como Duration.
func (c *Config) LedgerTimeout() time.Duration {
	return time.Duration(c.Ledger.TimeoutSeconds) * time.Second
}

// OracleTimeout devuelve el timeout del cliente HTTP del oráculo.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.Oracle.TimeoutSeconds) * time.Second
}

// ResolveDelay devuelve el margen previo a la resolución diferida.
func (c *Config) ResolveDelay() time.Duration {
	return time.Duration(c.Settlement.ResolveDelaySeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes. El seed de firma y la API key solo deberían llegar por aquí.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUBIC_NODE_IP"); v != "" {
		cfg.Ledger.NodeIP = v
	}
	if v := os.Getenv("QUBIC_NODE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Ledger.NodePort = p
		}
	}
	if v := os.Getenv("QUBIC_CONTRACT_ADDRESS"); v != "" {
		cfg.Ledger.ContractAddress = v
	}
	if v := os.Getenv("QUBIC_CLI_PATH"); v != "" {
		cfg.Ledger.CLIPath = v
	}
	if v := os.Getenv("QUBIC_SEED"); v != "" {
		cfg.Ledger.Seed = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Ledger.NodeIP == "" {
		cfg.Ledger.NodeIP = "127.0.0.1"
	}
	if cfg.Ledger.NodePort <= 0 {
		cfg.Ledger.NodePort = 31841
	}
	if cfg.Ledger.CLIPath == "" {
		cfg.Ledger.CLIPath = "./qubic-tools/qubic-cli"
	}
	if cfg.Ledger.TimeoutSeconds <= 0 {
		cfg.Ledger.TimeoutSeconds = 10
	}
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "llama3-8b-8192"
	}
	if cfg.Oracle.TimeoutSeconds <= 0 {
		cfg.Oracle.TimeoutSeconds = 15
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "mem"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "predictor.db"
	}
	if cfg.Settlement.QueueSize <= 0 {
		cfg.Settlement.QueueSize = 256
	}
	if cfg.Settlement.ResolveDelaySeconds < 0 {
		cfg.Settlement.ResolveDelaySeconds = 0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
