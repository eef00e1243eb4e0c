package internal

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/notify"
	"github.com/vadiminshakov/krakendca/internal/scheduler"
	"github.com/vadiminshakov/krakendca/internal/services/strategy/dca"
	"github.com/vadiminshakov/krakendca/internal/storage/trades"
)

type tradingStrategy interface {
	Initialize(ctx context.Context) error
	Trade(ctx context.Context) (*domain.TradeEvent, error)
}

type tickerService interface {
	GetTicker(ctx context.Context, pair domain.Pair) (*domain.TickerSnapshot, error)
}

// TradingBot runs the trade cycle on schedule and polls the price in between.
type TradingBot struct {
	Config   config.Config
	Journal  *trades.WALStore
	strategy tradingStrategy
	pricer   tickerService
	schedule *scheduler.Schedule
	notifier notify.Notifier
	l        *zap.Logger
	now      func() time.Time

	mu         sync.RWMutex
	lastTicker *domain.TickerSnapshot
}

// NewTradingBot wires the platform services, the trade journal and the DCA strategy.
// creds may be nil for the simulate platform.
func NewTradingBot(conf config.Config, creds *config.Credentials, notifier notify.Notifier, logger *zap.Logger) (*TradingBot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}

	provider, err := newServiceProvider(conf, creds, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service provider")
	}
	currentTrader, err := provider.Trader()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trader")
	}
	currentPricer := provider.Pricer()

	schedule, err := scheduler.NewSchedule(conf.TriggerTimes, conf.Location)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schedule")
	}

	journal, err := trades.NewWALStore(filepath.Join(conf.WALDir, "trades"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open trade journal")
	}
	nonces := domain.NewNonceSource(journal.LastNonce())

	tsLogger := logger.With(zap.String("pair", conf.Pair.String()))
	strategy, err := dca.NewDCAStrategy(
		tsLogger,
		conf.Pair,
		conf.Amount,
		conf.VolumeDecimals,
		currentPricer,
		currentTrader,
		nonces,
		journal,
	)
	if err != nil {
		journal.Close()
		return nil, errors.Wrap(err, "failed to create DCAStrategy")
	}

	return &TradingBot{
		Config:   conf,
		Journal:  journal,
		strategy: strategy,
		pricer:   currentPricer,
		schedule: schedule,
		notifier: notifier,
		l:        logger,
		now:      time.Now,
	}, nil
}

// Close closes the trade journal.
func (b *TradingBot) Close() error {
	if b.Journal == nil {
		return nil
	}
	return b.Journal.Close()
}

// LastTicker returns the most recent successfully polled ticker, or nil.
func (b *TradingBot) LastTicker() *domain.TickerSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.lastTicker == nil {
		return nil
	}
	t := *b.lastTicker
	return &t
}

// Run executes the trading loop until ctx is cancelled.
func (b *TradingBot) Run(ctx context.Context) error {
	if err := b.strategy.Initialize(ctx); err != nil {
		return errors.Wrap(err, "failed to initialize trading strategy")
	}

	ticker := time.NewTicker(b.Config.PollPriceInterval)
	defer ticker.Stop()

	b.l.Info("Starting trading loop",
		zap.String("pair", b.Config.Pair.String()),
		zap.Duration("poll_interval", b.Config.PollPriceInterval),
		zap.String("timezone", b.schedule.Location().String()),
		zap.Time("next_trade", b.schedule.Next(b.now())))

	for {
		select {
		case <-ctx.Done():
			b.l.Info("Context done, stopping trading bot run loop.", zap.String("pair", b.Config.Pair.String()))
			return ctx.Err()
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

func (b *TradingBot) tick(ctx context.Context) {
	now := b.now()
	if trigger, ok := b.schedule.Due(now); ok {
		b.l.Info("Scheduled trade triggered", zap.String("trigger", trigger.String()))
		b.trade(ctx)
		b.l.Info("Next trade scheduled", zap.Time("next_trade", b.schedule.Next(now)))
	}

	b.pollPrice(ctx)
}

func (b *TradingBot) trade(ctx context.Context) {
	tradeCtx, cancel := context.WithTimeout(ctx, b.Config.RequestTimeout*2)
	defer cancel()

	event, err := b.strategy.Trade(tradeCtx)
	if err != nil {
		b.l.Error("Trading strategy failed", zap.String("pair", b.Config.Pair.String()), zap.Error(err))
		if nErr := b.notifier.NotifyError(ctx, err); nErr != nil {
			b.l.Warn("failed to send notification", zap.Error(nErr))
		}
	}
	if event == nil {
		return
	}

	fields := []zap.Field{zap.String("pair", b.Config.Pair.String()), zap.Stringer("event", event)}
	if event.Result != nil && event.Result.Raw != "" {
		fields = append(fields, zap.String("response", event.Result.Raw))
	}
	b.l.Info("Trade event occurred", fields...)
	if nErr := b.notifier.NotifyTrade(ctx, event); nErr != nil {
		b.l.Warn("failed to send notification", zap.Error(nErr))
	}
}

func (b *TradingBot) pollPrice(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, b.Config.RequestTimeout)
	defer cancel()

	snapshot, err := b.pricer.GetTicker(pollCtx, b.Config.Pair)
	if err != nil {
		b.l.Warn("Price poll failed", zap.String("pair", b.Config.Pair.String()), zap.Error(err))
		return
	}

	b.mu.Lock()
	b.lastTicker = snapshot
	b.mu.Unlock()

	b.l.Info("Current price",
		zap.String("pair", snapshot.Pair.String()),
		zap.String("best_bid", snapshot.BestBid.String()))
}
