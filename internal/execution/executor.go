package execution

import (
	"math"
	"time"

	"optionstrategy/internal/events"
	"optionstrategy/internal/order"
)

// Executor tracks in-flight orders and computes adaptive limit prices. It
// never calls a trading gateway — callers submit the instructions it
// produces and report fills/timeouts back to it.
type Executor struct {
	config Config
	Orders map[string]*ManagedOrder
}

// New constructs an Executor with the given configuration.
func New(config Config) *Executor {
	return &Executor{
		config: config,
		Orders: make(map[string]*ManagedOrder),
	}
}

// CalculateAdaptivePrice computes the limit price for instr given the
// current top of book. Buying (LONG OPEN / SHORT CLOSE) crosses the ask
// plus slippage; selling (SHORT OPEN / LONG CLOSE) crosses the bid minus
// slippage. MARKET, FAK, and FOK orders bypass slippage.
func (e *Executor) CalculateAdaptivePrice(instr order.Instruction, bid, ask, tick float64) float64 {
	slippageTicks := e.config.SlippageTicks
	if instr.OrderType != order.Limit {
		slippageTicks = 0
	}
	slippage := float64(slippageTicks) * tick

	if instr.IsBuy() {
		return ask + slippage
	}
	return bid - slippage
}

// RoundPriceToTick rounds price to the nearest multiple of tick, half-up.
func (e *Executor) RoundPriceToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Round(price/tick) * tick
}

// RegisterOrder records a new ManagedOrder, active, submitted at now.
func (e *Executor) RegisterOrder(vtOrderID string, instr order.Instruction, now time.Time) {
	e.Orders[vtOrderID] = &ManagedOrder{
		VtOrderID:   vtOrderID,
		Instruction: instr,
		SubmitTime:  now,
		RetryCount:  0,
		IsActive:    true,
	}
}

// CheckTimeouts scans active orders for those whose age has reached
// timeout_seconds, returning their IDs and one OrderTimeoutEvent per order.
func (e *Executor) CheckTimeouts(now time.Time) ([]string, []events.Event) {
	var cancelIDs []string
	var evs []events.Event

	for id, mo := range e.Orders {
		if !mo.IsActive {
			continue
		}
		age := now.Sub(mo.SubmitTime)
		if age >= time.Duration(e.config.TimeoutSeconds)*time.Second {
			mo.IsActive = false
			cancelIDs = append(cancelIDs, id)
			evs = append(evs, events.OrderTimeoutEvent{VtOrderID: id, Timestamp: now})
		}
	}
	return cancelIDs, evs
}

// PrepareRetry increments managed's retry count. If it now exceeds
// max_retries, the order is deactivated and an OrderRetryExhaustedEvent is
// returned with a nil instruction; otherwise a fresh instruction with the
// same fields is returned for resubmission.
func (e *Executor) PrepareRetry(managed *ManagedOrder, now time.Time) (*order.Instruction, []events.Event) {
	managed.RetryCount++
	if managed.RetryCount > e.config.MaxRetries {
		managed.IsActive = false
		return nil, []events.Event{events.OrderRetryExhaustedEvent{VtOrderID: managed.VtOrderID, Timestamp: now}}
	}
	instr := managed.Instruction
	return &instr, nil
}
