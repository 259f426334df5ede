package scheduler

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"optionstrategy/internal/events"
	"optionstrategy/internal/order"
)

// Scheduler holds the set of live AdvancedOrders keyed by order_id and
// produces new ones from submission requests.
type Scheduler struct {
	orders map[string]*AdvancedOrder
	rng    *rand.Rand
}

// New constructs a Scheduler. rng drives the volume randomization in
// CLASSIC_ICEBERG and ENHANCED_TWAP; pass a seeded *rand.Rand for
// reproducible tests.
func New(rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{orders: make(map[string]*AdvancedOrder), rng: rng}
}

// GetOrder looks up a live order by ID.
func (s *Scheduler) GetOrder(orderID string) *AdvancedOrder {
	return s.orders[orderID]
}

// SubmitIceberg slices instr into repeated batchSize-sized children, all
// immediately pending.
func (s *Scheduler) SubmitIceberg(instr order.Instruction, batchSize int, now time.Time) *AdvancedOrder {
	req := Request{OrderType: Iceberg, Instruction: instr, BatchSize: batchSize}
	volumes := icebergVolumes(instr.Volume, batchSize)
	return s.newOrder(req, volumes, constantTimes(len(volumes), now, 0), now)
}

// SubmitClassicIceberg is SubmitIceberg with per-child volume randomization
// and a per-child price offset in ticks, which the coordinator applies when
// it prices each due child.
func (s *Scheduler) SubmitClassicIceberg(instr order.Instruction, batchSize int, volumeRandomizeRatio float64, priceOffsetTicks int, now time.Time) *AdvancedOrder {
	req := Request{
		OrderType: ClassicIceberg, Instruction: instr, BatchSize: batchSize,
		VolumeRandomizeRatio: volumeRandomizeRatio, PriceOffsetTicks: priceOffsetTicks,
	}
	baseline := icebergVolumes(instr.Volume, batchSize)
	volumes := s.randomizeVolumes(instr.Volume, baseline, volumeRandomizeRatio)
	order := s.newOrder(req, volumes, constantTimes(len(volumes), now, 0), now)
	applyPriceOffset(order, priceOffsetTicks)
	return order
}

// SubmitTWAP (and TIMED_SPLIT) splits instr into numSlices equal-sized
// children spaced intervalSeconds apart, with the remainder distributed
// across the last slices.
func (s *Scheduler) SubmitTWAP(instr order.Instruction, orderType Type, numSlices, intervalSeconds int, now time.Time) *AdvancedOrder {
	n := resolveSliceCount(numSlices, 0, intervalSeconds)
	req := Request{OrderType: orderType, Instruction: instr, NumSlices: n, IntervalSeconds: intervalSeconds}
	volumes := evenSplit(instr.Volume, n)
	return s.newOrder(req, volumes, intervalTimes(n, now, intervalSeconds), now)
}

// SubmitEnhancedTWAP is SubmitTWAP with per-child volume randomization and a
// per-child price offset in ticks, which the coordinator applies when it
// prices each due child.
func (s *Scheduler) SubmitEnhancedTWAP(instr order.Instruction, numSlices, intervalSeconds int, volumeRandomizeRatio float64, priceOffsetTicks int, now time.Time) *AdvancedOrder {
	n := resolveSliceCount(numSlices, 0, intervalSeconds)
	req := Request{
		OrderType: EnhancedTWAP, Instruction: instr, NumSlices: n, IntervalSeconds: intervalSeconds,
		VolumeRandomizeRatio: volumeRandomizeRatio, PriceOffsetTicks: priceOffsetTicks,
	}
	baseline := evenSplit(instr.Volume, n)
	volumes := s.randomizeVolumes(instr.Volume, baseline, volumeRandomizeRatio)
	ord := s.newOrder(req, volumes, intervalTimes(n, now, intervalSeconds), now)
	applyPriceOffset(ord, priceOffsetTicks)
	return ord
}

// SubmitVWAP splits instr across the same time grid as TWAP, with per-slice
// volume proportional to volumeProfile.
func (s *Scheduler) SubmitVWAP(instr order.Instruction, volumeProfile []float64, intervalSeconds int, now time.Time) *AdvancedOrder {
	n := len(volumeProfile)
	req := Request{OrderType: VWAP, Instruction: instr, VolumeProfile: volumeProfile, IntervalSeconds: intervalSeconds}
	volumes := profileSplit(instr.Volume, volumeProfile)
	return s.newOrder(req, volumes, intervalTimes(n, now, intervalSeconds), now)
}

func (s *Scheduler) newOrder(req Request, volumes []int, times []time.Time, now time.Time) *AdvancedOrder {
	orderID := uuid.New().String()
	children := make([]*ChildOrder, len(volumes))
	schedule := make([]SliceEntry, len(volumes))
	for i, v := range volumes {
		children[i] = &ChildOrder{
			ChildID:       uuid.New().String(),
			ParentID:      orderID,
			Volume:        v,
			ScheduledTime: times[i],
		}
		schedule[i] = SliceEntry{ScheduledTime: times[i], Volume: v}
	}
	ord := &AdvancedOrder{
		OrderID:       orderID,
		Request:       req,
		Status:        Pending,
		ChildOrders:   children,
		CreatedTime:   now,
		SliceSchedule: schedule,
	}
	s.orders[orderID] = ord
	return ord
}

// GetPendingChildren returns every not-yet-submitted child across all live
// orders whose scheduled_time has arrived, in non-decreasing scheduled_time
// order. Ties within one order keep the order's child sequence; ties across
// orders follow the lexical order of their order IDs.
func (s *Scheduler) GetPendingChildren(now time.Time) []*ChildOrder {
	var pending []*ChildOrder
	orderIDs := make([]string, 0, len(s.orders))
	for id := range s.orders {
		orderIDs = append(orderIDs, id)
	}
	sort.Strings(orderIDs)
	for _, id := range orderIDs {
		for _, c := range s.orders[id].ChildOrders {
			if !c.IsSubmitted && !c.ScheduledTime.After(now) {
				pending = append(pending, c)
			}
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].ScheduledTime.Before(pending[j].ScheduledTime)
	})
	return pending
}

// MarkChildSubmitted flags child as submitted so it is no longer pending,
// and moves its parent from PENDING to EXECUTING on the first submitted
// child. An unknown childID is ignored.
func (s *Scheduler) MarkChildSubmitted(childID string) {
	for _, ord := range s.orders {
		for _, c := range ord.ChildOrders {
			if c.ChildID == childID {
				c.IsSubmitted = true
				if ord.Status == Pending {
					ord.Status = Executing
				}
				return
			}
		}
	}
}

// OnChildFilled marks a child filled, accumulates its volume onto the
// parent, and completes the parent (emitting its algorithm's completion
// event) once the requested total is reached.
func (s *Scheduler) OnChildFilled(childID string, now time.Time) []events.Event {
	for _, ord := range s.orders {
		for _, c := range ord.ChildOrders {
			if c.ChildID != childID {
				continue
			}
			if c.IsFilled {
				return nil
			}
			c.IsFilled = true
			ord.FilledVolume += c.Volume
			if ord.FilledVolume >= ord.Request.Instruction.Volume {
				ord.Status = Completed
				return []events.Event{completionEvent(ord, now)}
			}
			return nil
		}
	}
	return nil
}

func completionEvent(ord *AdvancedOrder, now time.Time) events.Event {
	switch ord.Request.OrderType {
	case TWAP, EnhancedTWAP:
		return events.TWAPCompleteEvent{OrderID: ord.OrderID, Timestamp: now}
	case VWAP:
		return events.VWAPCompleteEvent{OrderID: ord.OrderID, Timestamp: now}
	case TimedSplit:
		return events.TimedSplitCompleteEvent{OrderID: ord.OrderID, Timestamp: now}
	default:
		return events.IcebergCompleteEvent{OrderID: ord.OrderID, Timestamp: now}
	}
}

func icebergVolumes(total, batchSize int) []int {
	if batchSize <= 0 {
		batchSize = total
	}
	var volumes []int
	remaining := total
	for remaining > 0 {
		v := batchSize
		if v > remaining {
			v = remaining
		}
		volumes = append(volumes, v)
		remaining -= v
	}
	return volumes
}

func resolveSliceCount(numSlices, timeWindowSeconds, intervalSeconds int) int {
	if numSlices > 0 {
		return numSlices
	}
	if intervalSeconds > 0 && timeWindowSeconds > 0 {
		return timeWindowSeconds / intervalSeconds
	}
	return 1
}

// evenSplit divides total into n slices of total/n, distributing the
// remainder one unit at a time across the last slices so the sum is exact.
func evenSplit(total, n int) []int {
	if n <= 0 {
		n = 1
	}
	base := total / n
	remainder := total - base*n
	volumes := make([]int, n)
	for i := range volumes {
		volumes[i] = base
	}
	for i := n - remainder; i < n; i++ {
		volumes[i]++
	}
	return volumes
}

// profileSplit divides total proportionally to profile, floor-rounding each
// slice and distributing the shortfall across the last slices.
func profileSplit(total int, profile []float64) []int {
	n := len(profile)
	if n == 0 {
		return nil
	}
	var sum float64
	for _, p := range profile {
		sum += p
	}
	volumes := make([]int, n)
	allocated := 0
	if sum > 0 {
		for i, p := range profile {
			v := int(math.Floor(float64(total) * p / sum))
			volumes[i] = v
			allocated += v
		}
	}
	shortfall := total - allocated
	for i := n - shortfall; i < n && i >= 0; i++ {
		volumes[i]++
	}
	return volumes
}

func constantTimes(n int, at time.Time, _ int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = at
	}
	return times
}

func intervalTimes(n int, start time.Time, intervalSeconds int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i*intervalSeconds) * time.Second)
	}
	return times
}

// randomizeVolumes perturbs each baseline volume by up to ±ratio*baseline,
// clamping to keep every slice non-negative and the running total within
// the requested volume; the sum always equals total exactly.
func (s *Scheduler) randomizeVolumes(total int, baseline []int, ratio float64) []int {
	n := len(baseline)
	volumes := make([]int, n)
	remaining := total
	for i := 0; i < n-1; i++ {
		perturbation := int(math.Round(float64(baseline[i]) * ratio * (2*s.rng.Float64() - 1)))
		v := baseline[i] + perturbation
		if v < 0 {
			v = 0
		}
		if v > remaining {
			v = remaining
		}
		volumes[i] = v
		remaining -= v
	}
	if n > 0 {
		volumes[n-1] = remaining
	}
	return volumes
}

// applyPriceOffset stamps each child with its tick offset; the coordinator
// converts ticks to a price delta at submission time using price_tick.
func applyPriceOffset(ord *AdvancedOrder, priceOffsetTicks int) {
	for _, c := range ord.ChildOrders {
		c.PriceOffset = float64(priceOffsetTicks)
	}
}
