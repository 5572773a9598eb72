package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/profitlens/analytics/internal/ads"
	"github.com/profitlens/analytics/internal/adsync"
	"github.com/profitlens/analytics/internal/analytics"
	httpapi "github.com/profitlens/analytics/internal/api/http"
	"github.com/profitlens/analytics/internal/store"
	"github.com/profitlens/analytics/log"
)

// Config represents the global configuration for the service.
type Config struct {
	DB        store.Config     `mapstructure:"mysql"`
	Logger    log.Config       `mapstructure:"logger"`
	HTTP      httpapi.Config   `mapstructure:"http"`
	Analytics analytics.Config `mapstructure:"analytics"`
	Ads       ads.Config       `mapstructure:"ads"`
	GA        ads.GAConfig     `mapstructure:"ga"`
	AdSync    adsync.Config    `mapstructure:"ad_sync"`

	// OrgID is the organization the sync workers write for.
	OrgID string `mapstructure:"org_id"`
}

// LoadConfig loads the configuration from a file and/or environment variables.
// Environment variables take precedence over config file values.
func LoadConfig(cfgFile string) (*Config, error) {
	viper.SetConfigType("toml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "__"))

	bindEnvVars()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %v", err)
			}
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("$HOME/config/profitlens")
		viper.AddConfigPath("/etc/profitlens")
		_ = viper.ReadInConfig()
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config into struct: %v", err)
	}

	// Construct the DSN from individual env vars when it is not set directly.
	if config.DB.DSN == "" {
		mysqlHost := os.Getenv("MYSQL_HOST")
		mysqlPort := os.Getenv("MYSQL_PORT")
		mysqlUser := os.Getenv("MYSQL_USER")
		mysqlPassword := os.Getenv("MYSQL_PASSWORD")
		mysqlDatabase := os.Getenv("MYSQL_DATABASE")

		if mysqlHost != "" {
			if mysqlPort == "" {
				mysqlPort = "3306"
			}
			if mysqlUser != "" && mysqlPassword != "" && mysqlDatabase != "" {
				config.DB.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8&parseTime=true",
					mysqlUser, mysqlPassword, mysqlHost, mysqlPort, mysqlDatabase)
			}
		}
	}

	return &config, nil
}

// bindEnvVars binds environment variables to config keys
// This allows using both nested keys (MYSQL__DSN) and flat keys (MYSQL_DSN)
func bindEnvVars() {
	// MySQL
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.automigrate", "MYSQL_AUTOMIGRATE")
	viper.BindEnv("mysql.max_open_connections", "MYSQL_MAX_OPEN_CONNECTIONS")
	viper.BindEnv("mysql.max_idle_connections", "MYSQL_MAX_IDLE_CONNECTIONS")
	viper.BindEnv("mysql.tls_ca_path", "MYSQL_TLS_CA_PATH")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.add_source", "LOG_ADD_SOURCE")

	// HTTP
	viper.BindEnv("http.port", "HTTP_PORT")
	viper.BindEnv("http.address", "HTTP_ADDRESS")
	viper.BindEnv("http.allowed_origins", "HTTP_ALLOWED_ORIGINS")
	viper.BindEnv("http.jwt_secret", "HTTP_JWT_SECRET")

	// Analytics engine
	viper.BindEnv("analytics.timezone", "ANALYTICS_TIMEZONE")
	viper.BindEnv("analytics.shipping_dedup.enabled", "ANALYTICS_SHIPPING_DEDUP_ENABLED")
	viper.BindEnv("analytics.shipping_dedup.tolerance_pct", "ANALYTICS_SHIPPING_DEDUP_TOLERANCE_PCT")
	viper.BindEnv("analytics.shipping_dedup.tolerance_abs", "ANALYTICS_SHIPPING_DEDUP_TOLERANCE_ABS")

	// Ad insights
	viper.BindEnv("ads.base_url", "ADS_BASE_URL")
	viper.BindEnv("ads.access_token", "ADS_ACCESS_TOKEN")
	viper.BindEnv("ads.account_id", "ADS_ACCOUNT_ID")
	viper.BindEnv("ads.platform", "ADS_PLATFORM")
	viper.BindEnv("ads.timeout", "ADS_TIMEOUT")
	viper.BindEnv("ads.enabled", "ADS_ENABLED")

	// Traffic analytics
	viper.BindEnv("ga.property_id", "GA_PROPERTY_ID")
	viper.BindEnv("ga.credentials_json", "GA_CREDENTIALS_JSON")
	viper.BindEnv("ga.enabled", "GA_ENABLED")

	// Sync worker
	viper.BindEnv("ad_sync.worker_interval", "AD_SYNC_WORKER_INTERVAL")
	viper.BindEnv("ad_sync.lookback_days", "AD_SYNC_LOOKBACK_DAYS")
	viper.BindEnv("ad_sync.timezone", "AD_SYNC_TIMEZONE")

	viper.BindEnv("org_id", "ORG_ID")
}
