package internal

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/services/pricer"
	"github.com/vadiminshakov/krakendca/internal/services/trader"
	"github.com/vadiminshakov/krakendca/internal/storage/simstate"
)

type traderService interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
}

type priceService interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
	GetTicker(ctx context.Context, pair domain.Pair) (*domain.TickerSnapshot, error)
}

// serviceProvider creates platform-specific services.
type serviceProvider interface {
	Trader() (traderService, error)
	Pricer() priceService
}

// newServiceProvider is the single point of dispatch to platform-specific implementations.
func newServiceProvider(conf config.Config, creds *config.Credentials, logger *zap.Logger) (serviceProvider, error) {
	switch conf.Platform {
	case config.PlatformKraken:
		if creds == nil {
			return nil, fmt.Errorf("platform %s requires API credentials", conf.Platform)
		}
		client, err := clients.NewKrakenClient(creds.APIKey, creds.APISecret, conf.APIBaseURL, conf.RequestTimeout)
		if err != nil {
			return nil, err
		}
		return &krakenProvider{client: client, conf: conf}, nil
	case config.PlatformSimulate:
		client := clients.NewKrakenPublicClient(conf.APIBaseURL, conf.RequestTimeout)
		return &simulateProvider{client: client, conf: conf, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", conf.Platform)
	}
}

type krakenProvider struct {
	client *clients.KrakenClient
	conf   config.Config
}

func (p *krakenProvider) Trader() (traderService, error) {
	return trader.NewKrakenTrader(p.client, p.conf.OrderPath)
}

func (p *krakenProvider) Pricer() priceService {
	return pricer.NewKrakenPricer(p.client, p.conf.QuoteURL, p.conf.ResultKey)
}

// simulateProvider reads real prices and fills orders against a paper wallet.
type simulateProvider struct {
	client *clients.KrakenClient
	conf   config.Config
	logger *zap.Logger
}

func (p *simulateProvider) Trader() (traderService, error) {
	store, err := simstate.NewStore(filepath.Join(p.conf.WALDir, "simulate"), p.conf.Pair)
	if err != nil {
		return nil, err
	}
	return trader.NewSimulateTrader(p.conf.Pair, p.logger, store)
}

func (p *simulateProvider) Pricer() priceService {
	return pricer.NewKrakenPricer(p.client, p.conf.QuoteURL, p.conf.ResultKey)
}
