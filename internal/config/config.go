package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	MongoURI        string        `env:"MONGO_URI,required,notEmpty"`
	DBName          string        `env:"DB_NAME" envDefault:"storefront"`
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	AdminID         string        `env:"ADMIN_ID" envDefault:"admin"`
	AdminAliases    []string      `env:"ADMIN_ALIASES" envSeparator:","`
	FirebaseProject string        `env:"FIREBASE_PROJECT_ID"`
	FirebaseCreds   string        `env:"FIREBASE_CREDENTIALS_PATH"`

	StoreTimezone   string  `env:"STORE_TIMEZONE" envDefault:"Asia/Ho_Chi_Minh"`
	ShippingFee     float64 `env:"SHIPPING_FEE" envDefault:"30000"`
	TaxRate         float64 `env:"TAX_RATE" envDefault:"0"`
	BestSellersTopN int     `env:"BEST_SELLERS_TOP_N" envDefault:"10"`
	// Coupons maps an upper-case coupon code to a flat VND discount, e.g. "WELCOME:20000,VIP:50000".
	Coupons map[string]float64 `env:"COUPONS" envSeparator:"," envKeyValSeparator:":"`

	MessageRatePerMinute int           `env:"MESSAGE_RATE_PER_MINUTE" envDefault:"30"`
	StreamPollInterval   time.Duration `env:"STREAM_POLL_INTERVAL" envDefault:"3s"`
	MigrateLegacyOrders  bool          `env:"MIGRATE_LEGACY_ORDERS" envDefault:"false"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	LogOutput     string `env:"LOG_OUTPUT" envDefault:"stdout"`
	LogFile       string `env:"LOG_FILE" envDefault:"./logs/app.log"`
	LogMaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"7"`
	LogMaxAge     int    `env:"LOG_MAX_AGE" envDefault:"7"`
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	cfg, err := Parse()
	if err != nil {
		log.Fatal(err)
	}
	AppEnv = cfg
}

// Parse reads the configuration from the process environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.AdminID = strings.TrimSpace(cfg.AdminID)
	if cfg.AdminID == "" {
		return Config{}, fmt.Errorf("config: ADMIN_ID must not be blank")
	}
	if _, err := time.LoadLocation(cfg.StoreTimezone); err != nil {
		return Config{}, fmt.Errorf("config: invalid STORE_TIMEZONE %q: %w", cfg.StoreTimezone, err)
	}
	coupons := make(map[string]float64, len(cfg.Coupons))
	for code, amount := range cfg.Coupons {
		coupons[strings.ToUpper(strings.TrimSpace(code))] = amount
	}
	cfg.Coupons = coupons
	if cfg.BestSellersTopN <= 0 {
		cfg.BestSellersTopN = 10
	}
	return cfg, nil
}

// Location returns the store timezone used for "today" and "this month" windows.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}
