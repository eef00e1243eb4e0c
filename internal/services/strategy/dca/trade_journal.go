package dca

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

type recordStore interface {
	Save(record domain.TradeRecord) error
	RecordsAfter(index uint64) ([]domain.TradeRecordEntry, error)
}

// tradeJournal records every trade attempt before the order leaves the process,
// so the nonce and the intent survive a crash.
type tradeJournal struct {
	store recordStore
}

func newTradeJournal(store recordStore) *tradeJournal {
	return &tradeJournal{store: store}
}

func (j *tradeJournal) Prepare(req domain.OrderRequest, eventTime time.Time) (*domain.TradeRecord, error) {
	record := &domain.TradeRecord{
		ID:     uuid.New().String(),
		Status: domain.TradeRecordPending,
		Nonce:  req.Nonce,
		Pair:   req.Pair,
		Side:   req.Side,
		Volume: req.Volume,
		Price:  req.Price,
		Time:   eventTime,
	}

	if err := j.persist(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (j *tradeJournal) MarkDone(record *domain.TradeRecord, txIDs []string) error {
	if record == nil {
		return nil
	}
	record.Status = domain.TradeRecordDone
	record.TxIDs = txIDs
	record.Error = ""
	return j.persist(record)
}

func (j *tradeJournal) MarkRejected(record *domain.TradeRecord, messages []string) error {
	if record == nil {
		return nil
	}
	record.Status = domain.TradeRecordRejected
	record.Error = strings.Join(messages, "; ")
	return j.persist(record)
}

func (j *tradeJournal) MarkFailed(record *domain.TradeRecord, cause error) error {
	if record == nil {
		return nil
	}
	record.Status = domain.TradeRecordFailed
	if cause != nil {
		record.Error = cause.Error()
	} else {
		record.Error = ""
	}
	return j.persist(record)
}

// Pending returns records whose latest state is still pending.
func (j *tradeJournal) Pending() ([]*domain.TradeRecord, error) {
	entries, err := j.store.RecordsAfter(0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read trade journal")
	}

	latest := make(map[string]*domain.TradeRecord)
	order := make([]string, 0)
	for _, entry := range entries {
		record := entry.Record
		if _, seen := latest[record.ID]; !seen {
			order = append(order, record.ID)
		}
		latest[record.ID] = &record
	}

	pending := make([]*domain.TradeRecord, 0)
	for _, id := range order {
		if latest[id].Status == domain.TradeRecordPending {
			pending = append(pending, latest[id])
		}
	}
	return pending, nil
}

func (j *tradeJournal) persist(record *domain.TradeRecord) error {
	return errors.Wrap(j.store.Save(*record), "failed to persist trade record")
}
