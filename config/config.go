package config

import (
	"flag"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/redis/go-redis/v9"
)

// Config - Global variable to export
var Config AppConfig

// AppConfig defines
type AppConfig struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Temporal      TemporalConfig      `koanf:"temporal"`
	Cache         CacheConfig         `koanf:"cache"`
	OTELCollector OTELCollectorConfig `koanf:"otelcollector"`
	Storage       StorageConfig       `koanf:"storage"`
	Minio         MinioConfig         `koanf:"minio"`
	S3            S3Config            `koanf:"s3"`
	Zoom          ZoomConfig          `koanf:"zoom"`
	Ingest        IngestConfig        `koanf:"ingest"`
	Notification  NotificationConfig  `koanf:"notification"`
	Sweep         SweepConfig         `koanf:"sweep"`
}

// ServerConfig defines HTTP server configurations
type ServerConfig struct {
	PublicPort  int `koanf:"publicport" validate:"min=1"`
	PrivatePort int `koanf:"privateport" validate:"min=1,nefield=PublicPort"`
	HTTPS       struct {
		Cert string `koanf:"cert"`
		Key  string `koanf:"key"`
	}
	Debug       bool `koanf:"debug"`
	MaxDataSize int  `koanf:"maxdatasize"` // in MB
}

// DatabaseConfig related to database
type DatabaseConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"`
	Version  uint   `koanf:"version"`
	TimeZone string `koanf:"timezone"`
	Pool     struct {
		IdleConnections int           `koanf:"idleconnections"`
		MaxConnections  int           `koanf:"maxconnections"`
		ConnLifeTime    time.Duration `koanf:"connlifetime"`
	}
}

// TemporalConfig is the Temporal client configuration.
type TemporalConfig struct {
	HostPort  string `koanf:"hostport" validate:"required"`
	Namespace string `koanf:"namespace"`
}

// OTELCollectorConfig related to OTEL collector
type OTELCollectorConfig struct {
	Enable bool   `koanf:"enable"`
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
}

// CacheConfig related to Redis
type CacheConfig struct {
	Redis struct {
		RedisOptions redis.Options `koanf:"redisoptions"`
	}
}

// Storage providers.
const (
	StorageProviderMinIO = "minio"
	StorageProviderS3    = "s3"
)

// StorageConfig selects the durable object storage backend.
type StorageConfig struct {
	Provider string `koanf:"provider" validate:"oneof=minio s3"`
}

// MinioConfig is the MinIO connection configuration.
type MinioConfig struct {
	Host       string `koanf:"host"`
	Port       string `koanf:"port"`
	User       string `koanf:"user"`
	Password   string `koanf:"password"`
	BucketName string `koanf:"bucketname"`
	Secure     bool   `koanf:"secure"`
	Region     string `koanf:"region"`
}

// S3Config is the AWS S3 configuration, used when storage.provider is s3.
type S3Config struct {
	Region          string `koanf:"region"`
	Bucket          string `koanf:"bucket"`
	AccessKeyID     string `koanf:"accesskeyid"`
	SecretAccessKey string `koanf:"secretaccesskey"`
	Endpoint        string `koanf:"endpoint"`
}

// Webhook authentication modes.
const (
	AuthModeHMAC  = "hmac"
	AuthModeToken = "token"
)

// ZoomConfig holds the meeting platform API and webhook settings.
type ZoomConfig struct {
	APIBaseURL    string        `koanf:"apibaseurl" validate:"url"`
	TokenURL      string        `koanf:"tokenurl" validate:"url"`
	AccountID     string        `koanf:"accountid"`
	ClientID      string        `koanf:"clientid"`
	ClientSecret  string        `koanf:"clientsecret"`
	WebhookSecret string        `koanf:"webhooksecret" validate:"required"`
	AuthMode      string        `koanf:"authmode" validate:"oneof=hmac token"`
	Timeout       time.Duration `koanf:"timeout"`
	// TimestampTolerance bounds the age of a signed delivery. Zero disables
	// the check.
	TimestampTolerance time.Duration `koanf:"timestamptolerance" validate:"min=0"`
}

// IngestConfig controls admission and per-run behavior.
type IngestConfig struct {
	// MinimumDurationMinutes is compared to the event duration, which the
	// platform reports in minutes.
	MinimumDurationMinutes int `koanf:"minimumdurationminutes" validate:"min=0"`
	// ArchiveTimeZone is the IANA zone used for path times. Empty means UTC.
	ArchiveTimeZone         string         `koanf:"archivetimezone"`
	DeleteSourceAfterIngest bool           `koanf:"deletesourceafteringest"`
	Transfer                TransferConfig `koanf:"transfer"`
}

// TransferConfig controls file retrieval and upload.
type TransferConfig struct {
	MaxAttempts    int           `koanf:"maxattempts" validate:"min=1"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
	MaxBackoff     time.Duration `koanf:"maxbackoff"`
	PartSize       uint64        `koanf:"partsize"`
	Timeout        time.Duration `koanf:"timeout"`
}

// NotificationConfig is the downstream queue configuration.
type NotificationConfig struct {
	QueueKey string `koanf:"queuekey" validate:"required"`
}

// SweepConfig schedules the periodic recording sweep.
type SweepConfig struct {
	CronSchedule string `koanf:"cronschedule"`
	LookbackDays int    `koanf:"lookbackdays"`
}

// Init - Assign global config to decoded config struct
func Init(filePath string) error {
	// .env is optional; values there are read by the CFG_ env provider below.
	_ = godotenv.Load()

	k := koanf.New(".")
	parser := yaml.Parser()

	if err := k.Load(confmap.Provider(map[string]any{
		"server.publicport":              8080,
		"server.privateport":             3081,
		"storage.provider":               StorageProviderMinIO,
		"zoom.apibaseurl":                "https://api.zoom.us/v2",
		"zoom.tokenurl":                  "https://zoom.us/oauth/token",
		"zoom.authmode":                  AuthModeHMAC,
		"zoom.timeout":                   30 * time.Second,
		"zoom.timestamptolerance":        5 * time.Minute,
		"ingest.minimumdurationminutes":  2,
		"ingest.transfer.maxattempts":    4,
		"ingest.transfer.initialbackoff": time.Second,
		"ingest.transfer.maxbackoff":     30 * time.Second,
		"ingest.transfer.partsize":       16 * 1024 * 1024,
		"notification.queuekey":          "recording-backend:notifications",
		"sweep.lookbackdays":             31,
		"temporal.namespace":             "default",
		"database.pool.idleconnections":  5,
		"database.pool.maxconnections":   20,
		"database.pool.connlifetime":     30 * time.Minute,
	}, "."), nil); err != nil {
		log.Fatal(err.Error())
	}

	if err := k.Load(file.Provider(filePath), parser); err != nil {
		log.Fatal(err.Error())
	}

	if err := k.Load(env.ProviderWithValue("CFG_", ".", func(s string, v string) (string, any) {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CFG_")), "_", ".")
		if strings.Contains(v, ",") {
			return key, strings.Split(strings.TrimSpace(v), ",")
		}
		return key, v
	}), nil); err != nil {
		return err
	}

	if err := k.Unmarshal("", &Config); err != nil {
		return err
	}

	return ValidateConfig(&Config)
}

// ValidateConfig is for custom validation rules for the configuration
func ValidateConfig(cfg *AppConfig) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	return nil
}

// ArchiveLocation resolves the configured archive time zone.
func (c IngestConfig) ArchiveLocation() (*time.Location, error) {
	if c.ArchiveTimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.ArchiveTimeZone)
}

var defaultConfigPath = "config/config.yaml"

// ParseConfigFlag allows clients to specify the relative path to the file from
// which the configuration will be loaded.
func ParseConfigFlag() string {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("file", defaultConfigPath, "configuration file")
	_ = fs.Parse(os.Args[1:])

	return *configPath
}
