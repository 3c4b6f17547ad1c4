package format

import "time"

// EnhancementOutcome is how one scenario enhancement attempt ended.
type EnhancementOutcome string

const (
	OutcomeApplied       EnhancementOutcome = "applied"
	OutcomeNotConfigured EnhancementOutcome = "not_configured"
	OutcomeIneligible    EnhancementOutcome = "ineligible"
	OutcomeDeclined      EnhancementOutcome = "declined"
	OutcomeFailed        EnhancementOutcome = "failed"
)

// Observer receives pipeline measurements. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveFormat(ct ContentType, messageType string, d time.Duration, failed bool)
	ObserveEnhancement(outcome EnhancementOutcome, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveFormat(ContentType, string, time.Duration, bool) {}

func (nopObserver) ObserveEnhancement(EnhancementOutcome, time.Duration) {}
