// Package scheduler implements the advanced order scheduler: it slices a
// parent instruction into a pre-computed child schedule (ICEBERG, TWAP,
// VWAP, TIMED_SPLIT, and randomized variants) and tracks parent/child
// lifecycle through to completion.
package scheduler

import (
	"time"

	"optionstrategy/internal/order"
)

// Type identifies an advanced order algorithm.
type Type string

const (
	Iceberg        Type = "iceberg"
	TWAP           Type = "twap"
	VWAP           Type = "vwap"
	TimedSplit     Type = "timed_split"
	ClassicIceberg Type = "classic_iceberg"
	EnhancedTWAP   Type = "enhanced_twap"
)

// Status is the lifecycle state of an AdvancedOrder.
type Status string

const (
	Pending   Status = "pending"
	Executing Status = "executing"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
)

// SliceEntry is one pre-computed slot in a parent's slice schedule.
type SliceEntry struct {
	ScheduledTime time.Time
	Volume        int
}

// ChildOrder is one slice of a parent AdvancedOrder, submitted independently.
type ChildOrder struct {
	ChildID       string
	ParentID      string
	Volume        int
	ScheduledTime time.Time
	IsSubmitted   bool
	IsFilled      bool
	PriceOffset   float64
}

// Request describes how to slice a parent instruction.
type Request struct {
	OrderType             Type
	Instruction            order.Instruction
	BatchSize              int
	TimeWindowSeconds      int
	NumSlices              int
	VolumeProfile          []float64
	IntervalSeconds        int
	PerOrderVolume         int
	VolumeRandomizeRatio   float64
	PriceOffsetTicks       int
	PriceTick              float64
}

// AdvancedOrder is a live parent order and its computed child schedule.
type AdvancedOrder struct {
	OrderID       string
	Request       Request
	Status        Status
	FilledVolume  int
	ChildOrders   []*ChildOrder
	CreatedTime   time.Time
	SliceSchedule []SliceEntry
}
