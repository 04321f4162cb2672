package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Row source backends
const (
	RowSourceSheet    = "sheet"
	RowSourcePostgres = "postgres"
)

// MaxRowCacheTTL bounds how stale a cached row table may get
const MaxRowCacheTTL = 5 * time.Minute

type Config struct {
	Server   ServerConfig
	Sheet    SheetConfig
	Columns  ColumnMapping
	Links    LinksConfig
	Cache    CacheConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Business BusinessConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// IsProduction reports whether the service runs with production defaults
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// SheetConfig selects the row source. MirrorInterval only applies to the
// postgres backend; zero leaves the mirror to an external loader.
type SheetConfig struct {
	Backend        string
	APIURL         string
	Timeout        time.Duration
	MirrorInterval time.Duration
}

// ColumnMapping maps order fields to the sheet's column titles
type ColumnMapping struct {
	ID              string
	Source          string
	Nickname        string
	ItemName        string
	Quantity        string
	GroupName       string
	ProductTotal    string
	DepositAmount   string
	BalanceDue      string
	IsReconciled    string
	IsShipped       string
	LogisticsStatus string
	ShippingDate    string
	PaymentMethod   string
	ArrivalDate     string
}

type LinksConfig struct {
	ChatURL        string
	MarketplaceURL string
}

type CacheConfig struct {
	RowTTL time.Duration
}

type SessionConfig struct {
	IdleTTL     time.Duration
	MaxSessions int
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LikeTTL  time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	TopicLikes    string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type BusinessConfig struct {
	ImportantKeywords []string
	AdminPassword     string
}

// DefaultColumnMapping matches the column titles of the order sheet
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		ID:              "訂單ID",
		Source:          "訂單來源",
		Nickname:        "社群名稱",
		ItemName:        "登記商品",
		Quantity:        "總數量",
		GroupName:       "團名",
		ProductTotal:    "商品金額",
		DepositAmount:   "匯款金額",
		BalanceDue:      "餘款",
		IsReconciled:    "對賬",
		IsShipped:       "出貨",
		LogisticsStatus: "狀態",
		ShippingDate:    "出貨日期",
		PaymentMethod:   "付款方式",
		ArrivalDate:     "抵台日期",
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	maxSessions, _ := strconv.Atoi(getEnv("SESSION_MAX", "10000"))
	defaults := DefaultColumnMapping()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Sheet: SheetConfig{
			Backend:        getEnv("ROW_SOURCE", RowSourceSheet),
			APIURL:         getEnv("SHEET_API_URL", ""),
			Timeout:        getEnvDuration("SHEET_TIMEOUT", 15*time.Second),
			MirrorInterval: getEnvDuration("MIRROR_SYNC_INTERVAL", 0),
		},
		Columns: ColumnMapping{
			ID:              getEnv("COLUMN_ID", defaults.ID),
			Source:          getEnv("COLUMN_SOURCE", defaults.Source),
			Nickname:        getEnv("COLUMN_NICKNAME", defaults.Nickname),
			ItemName:        getEnv("COLUMN_ITEM_NAME", defaults.ItemName),
			Quantity:        getEnv("COLUMN_QUANTITY", defaults.Quantity),
			GroupName:       getEnv("COLUMN_GROUP_NAME", defaults.GroupName),
			ProductTotal:    getEnv("COLUMN_PRODUCT_TOTAL", defaults.ProductTotal),
			DepositAmount:   getEnv("COLUMN_DEPOSIT_AMOUNT", defaults.DepositAmount),
			BalanceDue:      getEnv("COLUMN_BALANCE_DUE", defaults.BalanceDue),
			IsReconciled:    getEnv("COLUMN_IS_RECONCILED", defaults.IsReconciled),
			IsShipped:       getEnv("COLUMN_IS_SHIPPED", defaults.IsShipped),
			LogisticsStatus: getEnv("COLUMN_LOGISTICS_STATUS", defaults.LogisticsStatus),
			ShippingDate:    getEnv("COLUMN_SHIPPING_DATE", defaults.ShippingDate),
			PaymentMethod:   getEnv("COLUMN_PAYMENT_METHOD", defaults.PaymentMethod),
			ArrivalDate:     getEnv("COLUMN_ARRIVAL_DATE", defaults.ArrivalDate),
		},
		Links: LinksConfig{
			ChatURL:        getEnv("CHAT_URL", "https://lin.ee/cfEklUi"),
			MarketplaceURL: getEnv("MARKETPLACE_URL", "https://myship.7-11.com.tw/general/detail/GM2410034450510"),
		},
		Cache: CacheConfig{
			RowTTL: getEnvDuration("ROW_CACHE_TTL", 2*time.Minute),
		},
		Session: SessionConfig{
			IdleTTL:     getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
			MaxSessions: maxSessions,
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			LikeTTL:  getEnvDuration("LIKE_GUARD_TTL", 30*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			TopicLikes:    getEnv("KAFKA_TOPIC_LIKES", "announcement-likes"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "order-lookup-likes"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		Business: BusinessConfig{
			ImportantKeywords: splitAndTrim(getEnv("IMPORTANT_KEYWORDS", "重要,緊急,必看")),
			AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if cfg.Cache.RowTTL > MaxRowCacheTTL {
		log.Printf("ROW_CACHE_TTL %s exceeds %s, clamping", cfg.Cache.RowTTL, MaxRowCacheTTL)
		cfg.Cache.RowTTL = MaxRowCacheTTL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded: env=%s, port=%s, row_source=%s", cfg.Server.Env, cfg.Server.Port, cfg.Sheet.Backend)
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Sheet.Backend {
	case RowSourceSheet:
		if c.Sheet.APIURL == "" {
			return fmt.Errorf("SHEET_API_URL is required when ROW_SOURCE=%s", RowSourceSheet)
		}
	case RowSourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when ROW_SOURCE=%s", RowSourcePostgres)
		}
	default:
		return fmt.Errorf("ROW_SOURCE %q is invalid", c.Sheet.Backend)
	}
	if c.Columns.Nickname == "" {
		return fmt.Errorf("COLUMN_NICKNAME is empty")
	}
	if c.Cache.RowTTL < 0 {
		return fmt.Errorf("ROW_CACHE_TTL is negative")
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("SESSION_MAX must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, val, defaultVal)
		return defaultVal
	}
	return d
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
