// Package execution implements the smart order executor: adaptive limit
// pricing, tick rounding, and the timeout/retry state machine for
// individually submitted orders.
package execution

import (
	"time"

	"optionstrategy/internal/order"
)

// Config configures an Executor.
type Config struct {
	TimeoutSeconds int
	MaxRetries     int
	SlippageTicks  int
	PriceTick      float64
}

// DefaultConfig mirrors the original system's defaults.
func DefaultConfig() Config {
	return Config{
		TimeoutSeconds: 30,
		MaxRetries:     3,
		SlippageTicks:  2,
		PriceTick:      0.2,
	}
}

// ManagedOrder is the executor's view of a live order: the instruction it
// was submitted with, when it was submitted, and how many times it has
// been retried.
type ManagedOrder struct {
	VtOrderID  string
	Instruction order.Instruction
	SubmitTime time.Time
	RetryCount int
	IsActive   bool
}
