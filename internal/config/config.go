package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mentorconnect/submissions-api/internal/logger"
	"github.com/mentorconnect/submissions-api/internal/validator"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=mongo postgres"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"             validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
}

type PostgresConfig struct {
	User               string        `mapstructure:"user"`
	Password           string        `mapstructure:"password"`
	Host               string        `mapstructure:"host"`
	Database           string        `mapstructure:"database"`
	Port               int           `mapstructure:"port"`
	MaxIdleConnections int           `mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `mapstructure:"connection_ttl"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm        GormLogConfig `mapstructure:"gorm"`
	App         SlogConfig    `mapstructure:"app"`
	UseOTLP     bool          `mapstructure:"use_otlp"`
	OTelEnabled bool          `mapstructure:"otel_enabled"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins" validate:"required,min=1"`
}

type RateLimitConfig struct {
	RedisHost       string `mapstructure:"redis_host"`
	CreatePerMinute int64  `mapstructure:"create_per_minute" validate:"gte=0"`
	FailOpen        bool   `mapstructure:"fail_open"`
}

// See mentorapi.example.yaml for an example config
type Config struct {
	Store                *StoreConfig     `mapstructure:"store"                  validate:"required"`
	Mongo                *MongoConfig     `mapstructure:"mongo"                  validate:"required"`
	Postgres             *PostgresConfig  `mapstructure:"postgres"               validate:"required"`
	Logging              *LoggingConfig   `mapstructure:"logging"                validate:"required"`
	CORS                 *CORSConfig      `mapstructure:"cors"                   validate:"required"`
	RateLimit            *RateLimitConfig `mapstructure:"ratelimit"`
	ListenHost           string           `mapstructure:"listen_host"`
	AdminKey             string           `mapstructure:"admin_key"              validate:"required"`
	BodyLimit            string           `mapstructure:"body_limit"             validate:"required"`
	Port                 int              `mapstructure:"port"                   validate:"min=1,max=65535"`
	GracefulShutdownSecs int64            `mapstructure:"graceful_shutdown_secs"`
}

const (
	AdminKey                   string = "admin_key"
	AppLogLevel                string = "logging.app.level"
	BodyLimit                  string = "body_limit"
	CORSAllowOrigins           string = "cors.allow_origins"
	CreatePerMinute            string = "ratelimit.create_per_minute"
	EnvPrefix                  string = "mentorapi"
	GormLogLevel               string = "logging.gorm.level"
	GormTraceQueries           string = "logging.gorm.trace_queries"
	GracefulShutdownSecs       string = "graceful_shutdown_secs"
	ListenHost                 string = "listen_host"
	MongoConnectTimeout        string = "mongo.connect_timeout"
	MongoURI                   string = "mongo.uri"
	OTelEnabled                string = "logging.otel_enabled"
	Port                       string = "port"
	PostgresConnectonTTL       string = "postgres.connection_ttl"
	PostgresDatabase           string = "postgres.database"
	PostgresHost               string = "postgres.host"
	PostgresMaxIdleConnections string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections string = "postgres.max_open_connections"
	PostgresPassword           string = "postgres.password"
	PostgresPort               string = "postgres.port"
	PostgresUser               string = "postgres.user"
	RateLimitFailOpen          string = "ratelimit.fail_open"
	RedisHost                  string = "ratelimit.redis_host"
	StoreDriver                string = "store.driver"
	UseOTLP                    string = "logging.use_otlp"
)

// Bare variable names honoured alongside the prefixed ones. The prefixed name wins.
var aliases = map[string]string{
	Port:     "PORT",
	MongoURI: "MONGO_URI",
	AdminKey: "ADMIN_KEY",
}

var configReady = false
var config Config

// Loads the config from the default search path once and caches it
func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}

	c, err := Load("")
	if err != nil {
		return nil, err
	}

	config = *c
	configReady = true
	return &config, nil
}

// Loads the config. An empty `file` searches /etc/mentorapi/ and the working directory
// for mentorapi.yaml and tolerates its absence; a named file must exist.
func Load(file string) (*Config, error) {
	logger.Logger.Info("loading config", "file", file)

	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("mentorapi")
		v.AddConfigPath("/etc/mentorapi/")
		v.AddConfigPath(".")
	}

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	for key, alias := range aliases {
		prefixed := strings.ToUpper(EnvPrefix + "_" + strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, err
		}
	}

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range []string{PostgresUser, PostgresPassword, PostgresDatabase} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault(Port, 4000)
	v.SetDefault(ListenHost, "")
	v.SetDefault(StoreDriver, DriverMongo)
	v.SetDefault(MongoURI, "mongodb://localhost:27017/mentor_mentee")
	v.SetDefault(MongoConnectTimeout, 10*time.Second)
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(AdminKey, "admin_secret")
	v.SetDefault(CORSAllowOrigins, []string{"*"})
	v.SetDefault(BodyLimit, "100K")

	v.SetDefault(GormLogLevel, int(slog.LevelDebug))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelDebug))
	v.SetDefault(UseOTLP, false)
	v.SetDefault(OTelEnabled, true)

	v.SetDefault(RedisHost, "localhost")
	v.SetDefault(CreatePerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(GracefulShutdownSecs, 30)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var c Config
	err = v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&c)
	if err != nil {
		return nil, err
	}

	if c.Store.Driver == DriverPostgres {
		var missing []string
		if c.Postgres.User == "" {
			missing = append(missing, PostgresUser)
		}
		if c.Postgres.Password == "" {
			missing = append(missing, PostgresPassword)
		}
		if c.Postgres.Database == "" {
			missing = append(missing, PostgresDatabase)
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf(
				"store driver %s requires %s",
				DriverPostgres,
				strings.Join(missing, ", "),
			)
		}
	}

	return &c, nil
}

func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.Port))
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}

func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit != nil && c.RateLimit.CreatePerMinute > 0
}
