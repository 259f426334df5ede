// Package coordinator stitches the smart order executor together with the
// advanced order scheduler. It never calls a trading gateway: every
// operation returns OrderInstruction records and domain events for the
// strategy/gateway layer to act on.
package coordinator

import (
	"time"

	"optionstrategy/internal/events"
	"optionstrategy/internal/execution"
	"optionstrategy/internal/order"
	"optionstrategy/internal/scheduler"
)

// Coordinator coordinates an Executor and a Scheduler.
type Coordinator struct {
	Executor  *execution.Executor
	Scheduler *scheduler.Scheduler
}

// New constructs a Coordinator over the given executor and scheduler.
func New(executor *execution.Executor, sched *scheduler.Scheduler) *Coordinator {
	return &Coordinator{Executor: executor, Scheduler: sched}
}

// ProcessPendingChildren builds an OrderInstruction for every child the
// scheduler reports as due, priced by the executor's adaptive pricing, the
// child's price_offset_ticks applied with the same buy/sell sign as
// slippage, followed by tick rounding. With a zero price offset this is
// identical to calling Executor.CalculateAdaptivePrice then
// Executor.RoundPriceToTick directly on the same inputs.
func (c *Coordinator) ProcessPendingChildren(now time.Time, bidPrice, askPrice, priceTick float64) ([]order.Instruction, []events.Event) {
	var instructions []order.Instruction
	var evs []events.Event

	for _, child := range c.Scheduler.GetPendingChildren(now) {
		parent := c.Scheduler.GetOrder(child.ParentID)
		if parent == nil {
			continue
		}
		original := parent.Request.Instruction

		childInstruction := order.Instruction{
			VtSymbol:  original.VtSymbol,
			Direction: original.Direction,
			Offset:    original.Offset,
			Volume:    child.Volume,
			Price:     original.Price,
			Signal:    original.Signal,
			OrderType: original.OrderType,
		}

		adaptivePrice := c.Executor.CalculateAdaptivePrice(childInstruction, bidPrice, askPrice, priceTick)
		offsetDelta := child.PriceOffset * priceTick
		if childInstruction.IsBuy() {
			adaptivePrice += offsetDelta
		} else {
			adaptivePrice -= offsetDelta
		}
		roundedPrice := c.Executor.RoundPriceToTick(adaptivePrice, priceTick)

		instructions = append(instructions, order.Instruction{
			VtSymbol:  original.VtSymbol,
			Direction: original.Direction,
			Offset:    original.Offset,
			Volume:    child.Volume,
			Price:     roundedPrice,
			Signal:    original.Signal,
			OrderType: original.OrderType,
		})
	}

	return instructions, evs
}

// OnChildOrderSubmitted registers the child with the executor's timeout
// tracking and marks it submitted in the scheduler so it no longer appears
// as pending.
func (c *Coordinator) OnChildOrderSubmitted(childID, vtOrderID string, instr order.Instruction, now time.Time) {
	c.Executor.RegisterOrder(vtOrderID, instr, now)
	c.Scheduler.MarkChildSubmitted(childID)
}

// CheckTimeoutsAndRetry checks for timed-out orders, prepares a retry
// instruction for each, and aggregates the resulting cancel IDs, retry
// instructions, and events. Events preserve causal order: timeout before
// retry-exhausted.
func (c *Coordinator) CheckTimeoutsAndRetry(now time.Time, priceTick float64) ([]string, []order.Instruction, []events.Event) {
	cancelIDs, timeoutEvents := c.Executor.CheckTimeouts(now)

	var retryInstructions []order.Instruction
	allEvents := append([]events.Event{}, timeoutEvents...)

	for _, vtOrderID := range cancelIDs {
		managed, ok := c.Executor.Orders[vtOrderID]
		if !ok {
			continue
		}
		retryInstr, retryEvents := c.Executor.PrepareRetry(managed, now)
		allEvents = append(allEvents, retryEvents...)
		if retryInstr != nil {
			retryInstructions = append(retryInstructions, *retryInstr)
		}
	}

	return cancelIDs, retryInstructions, allEvents
}

// OnChildFilled delegates a child fill report to the scheduler.
func (c *Coordinator) OnChildFilled(childID string, now time.Time) []events.Event {
	return c.Scheduler.OnChildFilled(childID, now)
}
