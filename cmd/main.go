// Command krakendca buys a fixed fiat amount of crypto on Kraken at fixed
// times of day (dollar-cost averaging) and logs the best bid in between.
//
// Usage:
//
//	krakendca --config config.yaml
//	krakendca --setup (interactive wizard)
//	krakendca --pair XBT_USD --amount 100 (uses CLI arguments)
//
// Required environment variables for the kraken platform, unless
// credentials_secret_id points at AWS Secrets Manager:
//
//	KRAKEN_API_KEY, KRAKEN_API_SECRET
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal"
	"github.com/vadiminshakov/krakendca/internal/notify"
	"github.com/vadiminshakov/krakendca/internal/setup"
	"github.com/vadiminshakov/krakendca/internal/web"
)

func main() {
	conf, err := config.Get()
	if errors.Is(err, config.ErrSetupRequested) {
		path, setupErr := setup.RunTUI()
		if setupErr != nil {
			log.Fatal(setupErr)
		}
		conf, err = config.Load(path)
	}
	if errors.Is(err, flag.ErrHelp) {
		// usage is already printed by the flag set
		os.Exit(0)
	}
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(conf.LogLevel, conf.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}

func run(ctx context.Context, conf config.Config, logger *zap.Logger) error {
	var creds *config.Credentials
	if conf.Platform == config.PlatformKraken {
		c, err := config.LoadCredentials(conf)
		if err != nil {
			return err
		}
		creds = &c
	}

	var notifier notify.Notifier = notify.Nop{}
	if conf.TelegramToken != "" {
		tg, err := notify.NewTelegram(conf.TelegramToken, conf.TelegramChatID)
		if err != nil {
			return err
		}
		notifier = tg
	}

	bot, err := internal.NewTradingBot(conf, creds, notifier, logger)
	if err != nil {
		return err
	}
	defer bot.Close()

	if conf.WebAddr != "" {
		server := web.NewServer(conf.WebAddr, conf.Pair, bot, bot.Journal, logger)
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("status server stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("Bot started",
		zap.String("platform", conf.Platform),
		zap.String("pair", conf.Pair.String()),
		zap.String("amount", conf.Amount.String()))

	return bot.Run(ctx)
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
