package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Strategy StrategyConfig `yaml:"strategy"`
	API      APIConfig      `yaml:"api"`
	Wallet   WalletConfig   `yaml:"-"` // solo desde .env, nunca desde YAML
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// BotConfig controla qué mercados se siguen y el ritmo del loop.
type BotConfig struct {
	Symbols            []string `yaml:"symbols"`              // ej: ["eth", "btc"]
	DiscoveryRetrySecs int      `yaml:"discovery_retry_secs"` // pausa tras un ciclo sin mercado
	ReadTimeoutSecs    int      `yaml:"read_timeout_secs"`    // timeout de lectura del ws
	RenderIntervalSecs int      `yaml:"render_interval_secs"` // cadencia del dashboard
}

// StrategyConfig son los límites de la estrategia, fijos durante el run.
type StrategyConfig struct {
	TargetSpread      float64 `yaml:"target_spread"`       // descuento requerido bajo paridad
	ClipSizeUSDC      float64 `yaml:"clip_size_usdc"`      // notional por orden
	MaxExposureUSDC   float64 `yaml:"max_exposure_usdc"`   // tope de cost basis total
	MaxImbalance      float64 `yaml:"max_imbalance_shares"` // tope de |qty_yes - qty_no|
	MinRepriceMillis  int     `yaml:"min_reprice_millis"`  // debounce entre órdenes
	MinOrderShares    float64 `yaml:"min_order_shares"`    // tamaño mínimo negociable
	EntryPriceMax     float64 `yaml:"entry_price_max"`     // entrada sin posición si ask < X (0 = off)
	OrderTTLSecs      int     `yaml:"order_ttl_secs"`      // expiración GTD de cada orden
}

// APIConfig contiene los base URLs de las APIs de Polymarket.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	DataBase  string `yaml:"data_base"`
	WSBase    string `yaml:"ws_base"`
}

// WalletConfig son las credenciales de firma. Solo se cargan del entorno.
type WalletConfig struct {
	PrivateKey string // POLY_PRIVATE_KEY, hex sin prefijo 0x
	Funder     string // POLY_FUNDER, dirección del proxy que custodia los fondos
}

// StorageConfig controla dónde se persiste el journal de fills.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:", o "" para desactivar
}

// MetricsConfig controla el endpoint de Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // ej: ":9090", "" para desactivar
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las credenciales de wallet solo se leen del entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// DiscoveryRetry devuelve la pausa entre intentos de discovery.
func (c *Config) DiscoveryRetry() time.Duration {
	return time.Duration(c.Bot.DiscoveryRetrySecs) * time.Second
}

// ReadTimeout devuelve el timeout de lectura del websocket.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Bot.ReadTimeoutSecs) * time.Second
}

// RenderInterval devuelve la cadencia de refresco del dashboard.
func (c *Config) RenderInterval() time.Duration {
	return time.Duration(c.Bot.RenderIntervalSecs) * time.Second
}

// MinRepriceInterval devuelve el debounce entre órdenes aceptadas.
func (c *Config) MinRepriceInterval() time.Duration {
	return time.Duration(c.Strategy.MinRepriceMillis) * time.Millisecond
}

// OrderTTL devuelve la vida útil de cada orden GTD.
func (c *Config) OrderTTL() time.Duration {
	return time.Duration(c.Strategy.OrderTTLSecs) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLY_PRIVATE_KEY"); v != "" {
		cfg.Wallet.PrivateKey = strings.TrimPrefix(v, "0x")
	}
	if v := os.Getenv("POLY_FUNDER"); v != "" {
		cfg.Wallet.Funder = v
	}
	if v := os.Getenv("HEDGEBOT_SYMBOLS"); v != "" {
		cfg.Bot.Symbols = splitSymbols(v)
	}
}

// splitSymbols parsea una lista "eth,btc, sol" normalizando a minúsculas.
func splitSymbols(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if len(cfg.Bot.Symbols) == 0 {
		cfg.Bot.Symbols = []string{"eth"}
	}
	if cfg.Bot.DiscoveryRetrySecs <= 0 {
		cfg.Bot.DiscoveryRetrySecs = 2
	}
	if cfg.Bot.ReadTimeoutSecs <= 0 {
		cfg.Bot.ReadTimeoutSecs = 3
	}
	if cfg.Bot.RenderIntervalSecs <= 0 {
		cfg.Bot.RenderIntervalSecs = 1
	}
	if cfg.Strategy.TargetSpread <= 0 {
		cfg.Strategy.TargetSpread = 0.015
	}
	if cfg.Strategy.ClipSizeUSDC <= 0 {
		cfg.Strategy.ClipSizeUSDC = 10
	}
	if cfg.Strategy.MaxExposureUSDC <= 0 {
		cfg.Strategy.MaxExposureUSDC = 200
	}
	if cfg.Strategy.MaxImbalance <= 0 {
		cfg.Strategy.MaxImbalance = 25
	}
	if cfg.Strategy.MinRepriceMillis <= 0 {
		cfg.Strategy.MinRepriceMillis = 500
	}
	if cfg.Strategy.MinOrderShares <= 0 {
		cfg.Strategy.MinOrderShares = 1
	}
	if cfg.Strategy.OrderTTLSecs <= 0 {
		cfg.Strategy.OrderTTLSecs = 120
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.WSBase == "" {
		cfg.API.WSBase = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
