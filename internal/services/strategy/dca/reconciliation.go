package dca

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// errOutcomeUnknown is recorded for trades whose process died between signing and the exchange answer.
var errOutcomeUnknown = errors.New("process stopped before the exchange answered, outcome unknown")

// reconcilePending marks trades left pending by a crash as failed. Their nonces
// stay in the journal, so they are never reused.
func (d *Strategy) reconcilePending(ctx context.Context) error {
	pending, err := d.journal.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	d.l.Warn("Found trades without a recorded outcome, check the exchange order history",
		zap.Int("count", len(pending)))

	for _, record := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		d.l.Warn("Marking trade as failed",
			zap.String("trade_id", record.ID),
			zap.Uint64("nonce", record.Nonce),
			zap.String("volume", record.Volume.String()),
			zap.String("price", record.Price.String()),
			zap.Time("time", record.Time))

		if err := d.journal.MarkFailed(record, errOutcomeUnknown); err != nil {
			return errors.Wrapf(err, "failed to settle pending trade %s", record.ID)
		}
	}

	return nil
}
