package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// JWTConfig holds everything token issuance and verification needs.
// AccessExpiry and RefreshExpiry are lifetime specifiers of the form
// <integer><unit> with unit in {d,h,m}; parsing happens in the auth package.
type JWTConfig struct {
	SecretKey     string `mapstructure:"secretKey"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
	AccessExpiry  string `mapstructure:"accessExpiry"`
	RefreshExpiry string `mapstructure:"refreshExpiry"`
	BcryptCost    int    `mapstructure:"bcryptCost"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

type Config struct {
	Mode         string `mapstructure:"mode"`
	Dotenv       string `mapstructure:"dotenv"`
	Repositories struct {
		Postgres PostgresConfig `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort    string        `mapstructure:"HTTPPort"`
		MetricsPort string        `mapstructure:"MetricsPort"`
		Timeout     time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	JWT JWTConfig `mapstructure:"jwt"`
}

// InitConfig loads configuration once at process start. File-based config is
// preferred; the embedded copy is the fallback so the binary can run without
// any config on disk. Secrets come from the environment.
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Environment overrides for values that must never live in the file.
	_ = v.BindEnv("jwt.secretKey", "JWT_SECRET_KEY")
	_ = v.BindEnv("repositories.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("repositories.postgres.host", "POSTGRES_HOST")

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}

// DatabaseURL builds the postgresql:// connection string used by both the
// migration runner and the pgx pool.
func (c *Config) DatabaseURL() string {
	pg := c.Repositories.Postgres

	query := url.Values{}
	sslMode := pg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query.Set("sslmode", sslMode)
	query.Set("timezone", "utc")

	connURL := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     fmt.Sprintf("%s:%s", pg.Host, pg.Port),
		Path:     pg.DB,
		RawQuery: query.Encode(),
	}
	return connURL.String()
}
