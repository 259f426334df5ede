package execution

import (
	"testing"
	"time"

	"optionstrategy/internal/order"
)

func baseInstruction(direction order.Direction, offset order.Offset, orderType order.Type) order.Instruction {
	return order.Instruction{
		VtSymbol:  "rb2501.SHFE",
		Direction: direction,
		Offset:    offset,
		Volume:    10,
		Price:     4000,
		Signal:    "test",
		OrderType: orderType,
	}
}

func TestCalculateAdaptivePriceBuyCrossesAskPlusSlippage(t *testing.T) {
	e := New(Config{SlippageTicks: 2})
	instr := baseInstruction(order.Long, order.Open, order.Limit)
	got := e.CalculateAdaptivePrice(instr, 99.0, 100.0, 0.2)
	want := 100.0 + 2*0.2
	if got != want {
		t.Errorf("CalculateAdaptivePrice() = %v, want %v", got, want)
	}
}

func TestCalculateAdaptivePriceSellCrossesBidMinusSlippage(t *testing.T) {
	e := New(Config{SlippageTicks: 2})
	instr := baseInstruction(order.Short, order.Open, order.Limit)
	got := e.CalculateAdaptivePrice(instr, 99.0, 100.0, 0.2)
	want := 99.0 - 2*0.2
	if got != want {
		t.Errorf("CalculateAdaptivePrice() = %v, want %v", got, want)
	}
}

func TestCalculateAdaptivePriceMarketBypassesSlippage(t *testing.T) {
	e := New(Config{SlippageTicks: 2})
	instr := baseInstruction(order.Long, order.Open, order.Market)
	got := e.CalculateAdaptivePrice(instr, 99.0, 100.0, 0.2)
	if got != 100.0 {
		t.Errorf("CalculateAdaptivePrice() = %v, want 100.0 (no slippage for MARKET)", got)
	}
}

func TestCalculateAdaptivePriceScenarioE6(t *testing.T) {
	e := New(Config{SlippageTicks: 2})
	instr := baseInstruction(order.Long, order.Open, order.Limit)
	got := e.CalculateAdaptivePrice(instr, 100.0, 100.2, 0.5)
	want := 101.2
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("CalculateAdaptivePrice() = %v, want %v", got, want)
	}
}

func TestRoundPriceToTickHalfUp(t *testing.T) {
	e := New(DefaultConfig())
	got := e.RoundPriceToTick(100.11, 0.2)
	want := 100.2
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("RoundPriceToTick(100.11, 0.2) = %v, want %v", got, want)
	}
}

func TestRegisterOrderTracksActiveOrder(t *testing.T) {
	e := New(DefaultConfig())
	instr := baseInstruction(order.Long, order.Open, order.Limit)
	now := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	e.RegisterOrder("ord-1", instr, now)

	mo, ok := e.Orders["ord-1"]
	if !ok {
		t.Fatal("expected order 'ord-1' to be tracked")
	}
	if !mo.IsActive || mo.Instruction != instr {
		t.Errorf("registered order = %+v, want active with matching instruction", mo)
	}
}

func TestCheckTimeoutsFindsAgedOrders(t *testing.T) {
	e := New(Config{TimeoutSeconds: 30})
	submit := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	instr := baseInstruction(order.Long, order.Open, order.Limit)
	e.RegisterOrder("timed-out", instr, submit)
	e.RegisterOrder("fresh", instr, submit)

	now := submit.Add(31 * time.Second)
	// Make "fresh" not timed out by giving it a later submit time.
	e.Orders["fresh"].SubmitTime = submit.Add(20 * time.Second)

	cancelIDs, evs := e.CheckTimeouts(now)
	if len(cancelIDs) != 1 || cancelIDs[0] != "timed-out" {
		t.Fatalf("cancelIDs = %v, want [timed-out]", cancelIDs)
	}
	if len(evs) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(evs))
	}
	if e.Orders["timed-out"].IsActive {
		t.Error("expected timed-out order to be deactivated")
	}
}

func TestPrepareRetryExhaustsAfterMaxRetries(t *testing.T) {
	e := New(Config{MaxRetries: 1})
	instr := baseInstruction(order.Long, order.Open, order.Limit)
	mo := &ManagedOrder{VtOrderID: "a", Instruction: instr, IsActive: true}

	now := time.Now()
	retryInstr, evs := e.PrepareRetry(mo, now)
	if retryInstr == nil || len(evs) != 0 {
		t.Fatalf("first retry: got instr=%v events=%v, want non-nil instruction, no events", retryInstr, evs)
	}

	retryInstr, evs = e.PrepareRetry(mo, now)
	if retryInstr != nil {
		t.Errorf("second retry: expected nil instruction after exhausting retries, got %v", retryInstr)
	}
	if len(evs) != 1 {
		t.Fatalf("second retry: expected one OrderRetryExhaustedEvent, got %v", evs)
	}
	if mo.IsActive {
		t.Error("expected managed order to be deactivated once retries exhausted")
	}
}
