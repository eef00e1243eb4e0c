package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/scheduler"
	"github.com/vadiminshakov/krakendca/internal/services/pricer"
	"github.com/vadiminshakov/krakendca/internal/services/trader"
)

const (
	PlatformKraken   = "kraken"
	PlatformSimulate = "simulate"

	DefaultPair              = "XBT_USD"
	DefaultAmount            = "100"
	DefaultTimezone          = "America/New_York"
	DefaultPollPriceInterval = time.Second
	DefaultWALDir            = "./wal"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
)

// DefaultTriggerTimes trade twice a day, at midnight and noon.
var DefaultTriggerTimes = []string{"00:00", "12:00"}

// ErrSetupRequested is returned by Get when --setup is passed.
var ErrSetupRequested = errors.New("setup wizard requested")

// Config validated runtime configuration.
type Config struct {
	Platform          string
	Pair              domain.Pair
	Amount            decimal.Decimal
	QuoteURL          string
	APIBaseURL        string
	OrderPath         string
	ResultKey         string
	VolumeDecimals    int32
	TriggerTimes      []scheduler.TimeOfDay
	Location          *time.Location
	PollPriceInterval time.Duration
	RequestTimeout    time.Duration
	WALDir            string
	WebAddr           string
	LogLevel          string
	LogFormat         string
	TelegramToken     string
	TelegramChatID    int64
	CredentialsSecret string
	AWSRegion         string
}

// ConfigTmp raw YAML representation of Config.
type ConfigTmp struct {
	Platform            string        `yaml:"platform"`
	Pair                string        `yaml:"pair"`
	Amount              string        `yaml:"amount"`
	QuoteURL            string        `yaml:"quote_url,omitempty"`
	APIBaseURL          string        `yaml:"api_base_url,omitempty"`
	OrderPath           string        `yaml:"order_path,omitempty"`
	ResultKey           string        `yaml:"result_key,omitempty"`
	VolumeDecimals      *int32        `yaml:"volume_decimals,omitempty"`
	TriggerTimes        []string      `yaml:"trigger_times,omitempty"`
	Timezone            string        `yaml:"timezone,omitempty"`
	PollPriceInterval   time.Duration `yaml:"poll_price_interval,omitempty"`
	RequestTimeout      time.Duration `yaml:"request_timeout,omitempty"`
	WALDir              string        `yaml:"wal_dir,omitempty"`
	WebAddr             string        `yaml:"web_addr,omitempty"`
	LogLevel            string        `yaml:"log_level,omitempty"`
	LogFormat           string        `yaml:"log_format,omitempty"`
	TelegramToken       string        `yaml:"telegram_token,omitempty"`
	TelegramChatID      int64         `yaml:"telegram_chat_id,omitempty"`
	CredentialsSecretID string        `yaml:"credentials_secret_id,omitempty"`
	AWSRegion           string        `yaml:"aws_region,omitempty"`
}

// Get reads the configuration from --config YAML or from CLI flags.
func Get() (Config, error) {
	return getFromArgs(os.Args[1:])
}

// Load reads a YAML config file.
func Load(path string) (Config, error) {
	return getYaml(path)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}

	return tmp.toConfig()
}

func (c ConfigTmp) toConfig() (Config, error) {
	c.applyDefaults()

	platform := strings.ToLower(c.Platform)
	if platform != PlatformKraken && platform != PlatformSimulate {
		return Config{}, fmt.Errorf("unsupported platform %q, expected %s or %s", c.Platform, PlatformKraken, PlatformSimulate)
	}

	pair, err := domain.ParsePair(c.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param: %s, error: %w", c.Pair, err)
	}

	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'amount' param (correct format is 100 or 12.5), error: %w", err)
	}
	if !amount.IsPositive() {
		return Config{}, fmt.Errorf("incorrect 'amount' param: %s must be positive", c.Amount)
	}

	volumeDecimals := domain.DefaultVolumeDecimals
	if c.VolumeDecimals != nil {
		volumeDecimals = *c.VolumeDecimals
	}
	if volumeDecimals < 0 || volumeDecimals > 18 {
		return Config{}, fmt.Errorf("incorrect 'volume_decimals' param: %d", volumeDecimals)
	}

	triggers, err := scheduler.ParseTimesOfDay(c.TriggerTimes)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'trigger_times' param: %w", err)
	}

	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'timezone' param: %s, error: %w", c.Timezone, err)
	}

	if c.PollPriceInterval <= 0 || c.PollPriceInterval >= time.Minute {
		return Config{}, fmt.Errorf("incorrect 'poll_price_interval' param: %s must be between 0 and 1m", c.PollPriceInterval)
	}
	if c.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("incorrect 'request_timeout' param: %s", c.RequestTimeout)
	}
	if !strings.HasPrefix(c.OrderPath, "/") {
		return Config{}, fmt.Errorf("incorrect 'order_path' param: %q must start with /", c.OrderPath)
	}

	return Config{
		Platform:          platform,
		Pair:              pair,
		Amount:            amount,
		QuoteURL:          c.QuoteURL,
		APIBaseURL:        strings.TrimRight(c.APIBaseURL, "/"),
		OrderPath:         c.OrderPath,
		ResultKey:         c.ResultKey,
		VolumeDecimals:    volumeDecimals,
		TriggerTimes:      triggers,
		Location:          location,
		PollPriceInterval: c.PollPriceInterval,
		RequestTimeout:    c.RequestTimeout,
		WALDir:            c.WALDir,
		WebAddr:           c.WebAddr,
		LogLevel:          c.LogLevel,
		LogFormat:         c.LogFormat,
		TelegramToken:     c.TelegramToken,
		TelegramChatID:    c.TelegramChatID,
		CredentialsSecret: c.CredentialsSecretID,
		AWSRegion:         c.AWSRegion,
	}, nil
}

func (c *ConfigTmp) applyDefaults() {
	if c.Platform == "" {
		c.Platform = PlatformKraken
	}
	if c.Pair == "" {
		c.Pair = DefaultPair
	}
	if c.Amount == "" {
		c.Amount = DefaultAmount
	}
	if c.QuoteURL == "" {
		if pair, err := domain.ParsePair(c.Pair); err == nil {
			c.QuoteURL = pricer.TickerURL(pair)
		}
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = clients.DefaultKrakenBaseURL
	}
	if c.OrderPath == "" {
		c.OrderPath = trader.DefaultAddOrderPath
	}
	if len(c.TriggerTimes) == 0 {
		c.TriggerTimes = DefaultTriggerTimes
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.PollPriceInterval == 0 {
		c.PollPriceInterval = DefaultPollPriceInterval
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = clients.DefaultKrakenTimeout
	}
	if c.WALDir == "" {
		c.WALDir = DefaultWALDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}
