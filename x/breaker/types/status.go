package types

import (
	"time"

	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
)

// Status is a read-only snapshot of the breaker.
type Status struct {
	Operational       bool                    `json:"operational"`
	GracePeriodActive bool                    `json:"grace_period_active"`
	GracePeriodEnd    *time.Time              `json:"grace_period_end,omitempty"`
	Protected         []ratelimittypes.Status `json:"protected"`
	CheckedAt         time.Time               `json:"checked_at"`
}
