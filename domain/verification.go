package domain

import (
	"errors"
	"fmt"
)

var (
	// A diff arrived before any snapshot. The diff is dropped; the caller may count it.
	ErrOutOfOrderDiff = errors.New("order book diff received before snapshot")
	// A diff arrived after a checksum mismatch. Only a fresh snapshot is accepted.
	ErrBookDesynced = errors.New("order book is desynced, waiting for snapshot")
	// Level is not a [price, size] pair of valid decimals with positive price and non-negative size.
	ErrMalformedLevel = errors.New("malformed price level")

	ErrUnknownUpdateKind = errors.New("unknown order book update kind")
	// The update names a different market than the book it was handed to.
	ErrForeignMarket = errors.New("order book update for another market")
)

// DesyncError reports that the local book no longer matches the venue.
type DesyncError struct {
	Market   string
	Computed uint32
	Expected uint32
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("order book %s desynced: computed checksum %d, venue checksum %d",
		e.Market, e.Computed, e.Expected)
}

type VerificationResult string

const (
	Verification_Match    VerificationResult = "match"
	Verification_Mismatch VerificationResult = "mismatch"
	Verification_Skipped  VerificationResult = "skipped"
)

// VerificationOutcome is the result of comparing the local checksum with the venue one.
// Computed and Expected are only meaningful for Match and Mismatch.
type VerificationOutcome struct {
	Result   VerificationResult
	Market   string
	Computed uint32
	Expected uint32
}

func (o VerificationOutcome) IsMismatch() bool {
	return o.Result == Verification_Mismatch
}

// Err returns a *DesyncError for a mismatch and nil otherwise.
func (o VerificationOutcome) Err() error {
	if !o.IsMismatch() {
		return nil
	}
	return &DesyncError{Market: o.Market, Computed: o.Computed, Expected: o.Expected}
}

// Verify checks book against the venue checksum with the default codec.
func Verify(book *OrderBook, expected *uint32) VerificationOutcome {
	return VerifyWith(defaultChecksumCodec, book, expected)
}

// VerifyWith skips verification when the venue sent no checksum or when either
// side is empty, since the venue does not define a checksum for one-sided books.
func VerifyWith(codec *ChecksumCodec, book *OrderBook, expected *uint32) VerificationOutcome {
	outcome := VerificationOutcome{
		Result: Verification_Skipped,
		Market: book.Market.String(),
	}
	if expected == nil || !book.HasBothSides() {
		return outcome
	}

	outcome.Computed = book.Checksum(codec)
	outcome.Expected = *expected
	if outcome.Computed == outcome.Expected {
		outcome.Result = Verification_Match
	} else {
		outcome.Result = Verification_Mismatch
	}
	return outcome
}
