package config

import (
	"flag"
	"strings"

	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
)

// getFromArgs resolves --config and --setup, otherwise builds the config from flags.
func getFromArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("krakendca", flag.ContinueOnError)

	configPath := fs.String("config", "", "path to yaml config")
	setup := fs.Bool("setup", false, "run the interactive configuration wizard")

	var tmp ConfigTmp
	var triggers string
	var volumeDecimals int

	fs.StringVar(&tmp.Platform, "platform", PlatformKraken, "trading platform: kraken or simulate")
	fs.StringVar(&tmp.Pair, "pair", DefaultPair, "trade pair, example: XBT_USD")
	fs.StringVar(&tmp.Amount, "amount", DefaultAmount, "quote currency spent per trade, example: 100")
	fs.StringVar(&tmp.QuoteURL, "quoteurl", "", "ticker URL, defaults to the public Ticker endpoint for the pair")
	fs.StringVar(&tmp.APIBaseURL, "apibaseurl", "", "exchange API base URL")
	fs.StringVar(&tmp.OrderPath, "orderpath", "", "order endpoint path")
	fs.StringVar(&tmp.ResultKey, "resultkey", "", "ticker result key, example: XXBTZUSD")
	fs.IntVar(&volumeDecimals, "volumedecimals", int(domain.DefaultVolumeDecimals), "order volume precision")
	fs.StringVar(&triggers, "triggertimes", strings.Join(DefaultTriggerTimes, ","), "comma separated trade times, example: 00:00,12:00")
	fs.StringVar(&tmp.Timezone, "timezone", DefaultTimezone, "time zone of the trade times")
	fs.DurationVar(&tmp.PollPriceInterval, "pollpriceinterval", DefaultPollPriceInterval, "poll market price interval")
	fs.DurationVar(&tmp.RequestTimeout, "requesttimeout", clients.DefaultKrakenTimeout, "timeout of a single exchange request")
	fs.StringVar(&tmp.WALDir, "waldir", DefaultWALDir, "trade journal directory")
	fs.StringVar(&tmp.WebAddr, "webaddr", "", "status server address, example: :8080")
	fs.StringVar(&tmp.LogLevel, "loglevel", DefaultLogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&tmp.LogFormat, "logformat", DefaultLogFormat, "log format: json or console")
	fs.StringVar(&tmp.TelegramToken, "telegramtoken", "", "telegram bot token")
	fs.Int64Var(&tmp.TelegramChatID, "telegramchatid", 0, "telegram chat id")
	fs.StringVar(&tmp.CredentialsSecretID, "credentialssecret", "", "AWS Secrets Manager id holding the API credentials")
	fs.StringVar(&tmp.AWSRegion, "awsregion", "", "AWS region of the credentials secret")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if *setup {
		return Config{}, ErrSetupRequested
	}
	if *configPath != "" {
		return getYaml(*configPath)
	}

	decimals := int32(volumeDecimals)
	tmp.VolumeDecimals = &decimals
	for _, t := range strings.Split(triggers, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tmp.TriggerTimes = append(tmp.TriggerTimes, t)
		}
	}

	return tmp.toConfig()
}
