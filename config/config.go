package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtest.
type Config struct {
	Backtest BacktestConfig `yaml:"backtest"`
	Strategy StrategyConfig `yaml:"strategy"`
	Chain    ChainConfig    `yaml:"chain"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// BacktestConfig controla el replay paralelo.
type BacktestConfig struct {
	Workers               int     `yaml:"workers"`                 // 0 = NumCPU-1
	BatchSize             int64   `yaml:"batch_size"`              // rondas por fetch
	FlushThreshold        int     `yaml:"flush_threshold"`         // apuestas acumuladas antes de flush
	WindowCapacity        int     `yaml:"window_capacity"`         // tamaño de la ventana de precios
	MemoryCeilingFraction float64 `yaml:"memory_ceiling_fraction"` // techo de memoria del sistema (0-1)
}

// StrategyConfig son los parámetros de decisión y sizing.
type StrategyConfig struct {
	MinStake        float64 `yaml:"min_stake"`
	MaxStake        float64 `yaml:"max_stake"`
	MinScore        float64 `yaml:"min_score"`
	MaxScore        float64 `yaml:"max_score"`
	BullThreshold   float64 `yaml:"bull_threshold"`
	BearThreshold   float64 `yaml:"bear_threshold"`
	RSIOversold     float64 `yaml:"rsi_oversold"`
	RSIOverbought   float64 `yaml:"rsi_overbought"`
	StochOversold   float64 `yaml:"stoch_oversold"`
	StochOverbought float64 `yaml:"stoch_overbought"`
	EnsembleSize    int     `yaml:"ensemble_size"`
}

// ChainConfig apunta al contrato de predicción para el importer.
type ChainConfig struct {
	RPCURL     string  `yaml:"rpc_url"`
	Contract   string  `yaml:"contract"` // vacío = PancakeSwap Prediction V2
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Con path vacío arranca solo con defaults y overrides de entorno.
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

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BSC_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("BACKTEST_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BACKTEST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backtest.Workers = n
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Backtest.BatchSize <= 0 {
		cfg.Backtest.BatchSize = 500
	}
	if cfg.Backtest.FlushThreshold <= 0 {
		cfg.Backtest.FlushThreshold = 100
	}
	if cfg.Backtest.WindowCapacity <= 0 {
		cfg.Backtest.WindowCapacity = 100
	}
	if cfg.Backtest.MemoryCeilingFraction <= 0 {
		cfg.Backtest.MemoryCeilingFraction = 0.85
	}
	if cfg.Strategy.MinStake <= 0 {
		cfg.Strategy.MinStake = 0.001
	}
	if cfg.Strategy.MaxStake <= 0 {
		cfg.Strategy.MaxStake = 0.05
	}
	if cfg.Strategy.MinScore == 0 {
		cfg.Strategy.MinScore = -5
	}
	if cfg.Strategy.MaxScore == 0 {
		cfg.Strategy.MaxScore = 5
	}
	if cfg.Strategy.BullThreshold == 0 {
		cfg.Strategy.BullThreshold = 0.5
	}
	if cfg.Strategy.BearThreshold == 0 {
		cfg.Strategy.BearThreshold = -0.5
	}
	if cfg.Strategy.RSIOversold <= 0 {
		cfg.Strategy.RSIOversold = 30
	}
	if cfg.Strategy.RSIOverbought <= 0 {
		cfg.Strategy.RSIOverbought = 70
	}
	if cfg.Strategy.StochOversold <= 0 {
		cfg.Strategy.StochOversold = 20
	}
	if cfg.Strategy.StochOverbought <= 0 {
		cfg.Strategy.StochOverbought = 80
	}
	if cfg.Strategy.EnsembleSize <= 0 {
		cfg.Strategy.EnsembleSize = 3
	}
	if cfg.Chain.RPCURL == "" {
		cfg.Chain.RPCURL = "https://bsc-dataseed.binance.org"
	}
	if cfg.Chain.RatePerSec <= 0 {
		cfg.Chain.RatePerSec = 5
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "predictsim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
