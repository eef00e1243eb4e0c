// Package web serves a read-only status page, the last polled price and a live trade stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

const (
	tradePollInterval = 2 * time.Second
	heartbeatInterval = 30 * time.Second
)

type tickerSource interface {
	LastTicker() *domain.TickerSnapshot
}

type tradeRecordReader interface {
	RecordsAfter(index uint64) ([]domain.TradeRecordEntry, error)
}

// Server exposes HTTP endpoints with the bot status and an SSE stream of journal records.
type Server struct {
	Addr   string
	Pair   domain.Pair
	Ticker tickerSource
	Trades tradeRecordReader
	l      *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, pair domain.Pair, ticker tickerSource, trades tradeRecordReader, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Addr: addr, Pair: pair, Ticker: ticker, Trades: trades, l: l}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.l.Info("Starting status server", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /price", s.handlePrice)
	mux.HandleFunc("GET /trades", s.handleTrades)
	mux.HandleFunc("GET /trades/stream", s.handleTradeStream)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	fmt.Fprintf(w, "pair: %s\n", s.Pair.String())
	if t := s.lastTicker(); t != nil {
		fmt.Fprintf(w, "best bid: %s at %s\n", t.BestBid.String(), t.Time.Format(time.RFC3339))
	} else {
		fmt.Fprint(w, "best bid: n/a\n")
	}

	if s.Trades == nil {
		return
	}
	records, err := s.latestRecords()
	if err != nil {
		s.l.Error("status page: failed to read trade journal", zap.Error(err))
		fmt.Fprint(w, "trades: unavailable\n")
		return
	}

	counts := make(map[domain.TradeRecordStatus]int)
	for _, rec := range records {
		counts[rec.Status]++
	}
	fmt.Fprintf(w, "trades: %d (done %d, rejected %d, failed %d, pending %d)\n", len(records),
		counts[domain.TradeRecordDone], counts[domain.TradeRecordRejected],
		counts[domain.TradeRecordFailed], counts[domain.TradeRecordPending])

	if len(records) > 0 {
		last := records[len(records)-1]
		fmt.Fprintf(w, "last trade: %s %s %s @ %s (%s) at %s\n", last.Side, last.Volume.String(), last.Pair,
			last.Price.String(), last.Status, last.Time.Format(time.RFC3339))
	}
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	t := s.lastTicker()
	if t == nil {
		http.Error(w, "no price polled yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.Trades == nil {
		http.Error(w, "trade journal not available", http.StatusServiceUnavailable)
		return
	}
	records, err := s.latestRecords()
	if err != nil {
		s.l.Error("failed to read trade journal", zap.Error(err))
		http.Error(w, "failed to load trades", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	if s.Trades == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "trade journal not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat so proxies keep the connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(tradePollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendRecords := func() error {
		entries, err := s.Trades.RecordsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			payload, err := json.Marshal(entry.Record)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", entry.Index)
			fmt.Fprintf(w, "event: trade\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = entry.Index
		}
		return nil
	}

	if err := sendRecords(); err != nil {
		http.Error(w, "failed to load trades", http.StatusInternalServerError)
		s.l.Error("trade stream initial load", zap.Error(err))
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendRecords(); err != nil {
				s.l.Warn("trade stream poll", zap.Error(err))
			}
		}
	}
}

func (s *Server) lastTicker() *domain.TickerSnapshot {
	if s.Ticker == nil {
		return nil
	}
	return s.Ticker.LastTicker()
}

// latestRecords collapses the journal to the latest state of each trade, in first-seen order.
func (s *Server) latestRecords() ([]domain.TradeRecord, error) {
	entries, err := s.Trades.RecordsAfter(0)
	if err != nil {
		return nil, err
	}

	position := make(map[string]int)
	records := make([]domain.TradeRecord, 0)
	for _, entry := range entries {
		if i, ok := position[entry.Record.ID]; ok {
			records[i] = entry.Record
			continue
		}
		position[entry.Record.ID] = len(records)
		records = append(records, entry.Record)
	}
	return records, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
