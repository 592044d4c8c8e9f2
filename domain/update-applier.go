package domain

import (
	"fmt"

	"go.uber.org/zap"
)

type SyncState string

const (
	// No snapshot applied yet; diffs are dropped.
	SyncState_Unsynced SyncState = "unsynced"
	// Snapshot applied; diffs are applied and verified.
	SyncState_Synced SyncState = "synced"
	// Checksum mismatch seen; nothing but a fresh snapshot is accepted.
	SyncState_Desynced SyncState = "desynced"
)

// ApplyResult is what the applier hands back for an accepted update.
type ApplyResult struct {
	View         BookView
	Verification VerificationOutcome
	State        SyncState
}

// UpdateApplier routes feed updates for one market into its OrderBook and
// verifies the venue checksum after each of them.
type UpdateApplier struct {
	book   *OrderBook
	codec  *ChecksumCodec
	state  SyncState
	logger *zap.Logger
}

func NewUpdateApplier(book *OrderBook, codec *ChecksumCodec, logger *zap.Logger) *UpdateApplier {
	if codec == nil {
		codec = defaultChecksumCodec
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateApplier{
		book:   book,
		codec:  codec,
		state:  SyncState_Unsynced,
		logger: logger.Named("update-applier").With(zap.Stringer("market", book.Market)),
	}
}

func (a *UpdateApplier) State() SyncState {
	return a.state
}

func (a *UpdateApplier) Book() *OrderBook {
	return a.book
}

// Reset drops the local state ahead of a resubscription.
func (a *UpdateApplier) Reset() {
	a.book.Clear()
	a.state = SyncState_Unsynced
}

// Apply applies update and verifies the result.
//
// A diff is rejected with ErrOutOfOrderDiff before the first snapshot and with
// ErrBookDesynced after a mismatch; in both cases the book is left untouched.
// A checksum mismatch is not an error here: it is reported in the result's
// Verification and moves the applier to SyncState_Desynced.
// An update naming another market is rejected with ErrForeignMarket; a nil
// Market is taken to be this book's.
func (a *UpdateApplier) Apply(update *OrderBookUpdate) (*ApplyResult, error) {
	if update.Market != nil && !update.Market.Equal(a.book.Market) {
		return nil, fmt.Errorf("%w: %s update on %s book", ErrForeignMarket, update.Market, a.book.Market)
	}

	var view BookView

	switch update.Kind {
	case UpdateKind_Snapshot:
		if a.state == SyncState_Desynced {
			a.Reset()
		}
		view = a.book.ApplySnapshot(update.Bids, update.Asks)
		a.state = SyncState_Synced

	case UpdateKind_Diff:
		switch a.state {
		case SyncState_Unsynced:
			a.logger.Debug("dropped out of order diff",
				zap.Int("bids", len(update.Bids)), zap.Int("asks", len(update.Asks)))
			return nil, ErrOutOfOrderDiff
		case SyncState_Desynced:
			return nil, ErrBookDesynced
		}
		view = a.book.ApplyDiff(update.Bids, update.Asks)

	case UpdateKind_Reset:
		a.Reset()
		a.logger.Info("order book reset by feed")
		return &ApplyResult{
			View:         a.book.View(0),
			Verification: VerificationOutcome{Result: Verification_Skipped, Market: a.book.Market.String()},
			State:        a.state,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownUpdateKind, update.Kind)
	}

	outcome := VerifyWith(a.codec, a.book, update.Checksum)
	if outcome.IsMismatch() {
		a.state = SyncState_Desynced
		a.logger.Warn("checksum mismatch",
			zap.Uint32("computed", outcome.Computed),
			zap.Uint32("expected", outcome.Expected),
			zap.String("kind", string(update.Kind)),
		)
	}

	return &ApplyResult{
		View:         view,
		Verification: outcome,
		State:        a.state,
	}, nil
}
