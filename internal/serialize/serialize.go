// Package serialize implements the JSON-compatible to_dict/from_dict wire
// format for AdvancedOrder and ManagedOrder, matching §3's field names and
// enum string values exactly so a round trip is an identity on every field.
package serialize

import (
	"encoding/json"
	"time"

	"optionstrategy/internal/execution"
	"optionstrategy/internal/order"
	"optionstrategy/internal/scheduler"
)

type instructionDoc struct {
	VtSymbol  string  `json:"vt_symbol"`
	Direction string  `json:"direction"`
	Offset    string  `json:"offset"`
	Volume    int     `json:"volume"`
	Price     float64 `json:"price"`
	Signal    string  `json:"signal"`
	OrderType string  `json:"order_type"`
}

func toInstructionDoc(i order.Instruction) instructionDoc {
	return instructionDoc{
		VtSymbol:  i.VtSymbol,
		Direction: string(i.Direction),
		Offset:    string(i.Offset),
		Volume:    i.Volume,
		Price:     i.Price,
		Signal:    i.Signal,
		OrderType: string(i.OrderType),
	}
}

func (d instructionDoc) toInstruction() order.Instruction {
	return order.Instruction{
		VtSymbol:  d.VtSymbol,
		Direction: order.Direction(d.Direction),
		Offset:    order.Offset(d.Offset),
		Volume:    d.Volume,
		Price:     d.Price,
		Signal:    d.Signal,
		OrderType: order.Type(d.OrderType),
	}
}

type managedOrderDoc struct {
	VtOrderID   string         `json:"vt_orderid"`
	Instruction instructionDoc `json:"instruction"`
	SubmitTime  string         `json:"submit_time"`
	RetryCount  int            `json:"retry_count"`
	IsActive    bool           `json:"is_active"`
}

// ManagedOrderToJSON serializes mo to its JSON-compatible dict form.
func ManagedOrderToJSON(mo execution.ManagedOrder) ([]byte, error) {
	doc := managedOrderDoc{
		VtOrderID:   mo.VtOrderID,
		Instruction: toInstructionDoc(mo.Instruction),
		SubmitTime:  mo.SubmitTime.Format(time.RFC3339Nano),
		RetryCount:  mo.RetryCount,
		IsActive:    mo.IsActive,
	}
	return json.Marshal(doc)
}

// ManagedOrderFromJSON is the inverse of ManagedOrderToJSON.
func ManagedOrderFromJSON(data []byte) (execution.ManagedOrder, error) {
	var doc managedOrderDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return execution.ManagedOrder{}, err
	}
	submitTime, err := time.Parse(time.RFC3339Nano, doc.SubmitTime)
	if err != nil {
		return execution.ManagedOrder{}, err
	}
	return execution.ManagedOrder{
		VtOrderID:   doc.VtOrderID,
		Instruction: doc.Instruction.toInstruction(),
		SubmitTime:  submitTime,
		RetryCount:  doc.RetryCount,
		IsActive:    doc.IsActive,
	}, nil
}

type requestDoc struct {
	OrderType            string         `json:"order_type"`
	Instruction          instructionDoc `json:"instruction"`
	BatchSize            int            `json:"batch_size"`
	TimeWindowSeconds    int            `json:"time_window_seconds"`
	NumSlices            int            `json:"num_slices"`
	VolumeProfile        []float64      `json:"volume_profile"`
	IntervalSeconds      int            `json:"interval_seconds"`
	PerOrderVolume       int            `json:"per_order_volume"`
	VolumeRandomizeRatio float64        `json:"volume_randomize_ratio"`
	PriceOffsetTicks     int            `json:"price_offset_ticks"`
	PriceTick            float64        `json:"price_tick"`
}

type childOrderDoc struct {
	ChildID       string  `json:"child_id"`
	ParentID      string  `json:"parent_id"`
	Volume        int     `json:"volume"`
	ScheduledTime *string `json:"scheduled_time"`
	IsSubmitted   bool    `json:"is_submitted"`
	IsFilled      bool    `json:"is_filled"`
	PriceOffset   float64 `json:"price_offset"`
}

type sliceEntryDoc struct {
	ScheduledTime string `json:"scheduled_time"`
	Volume        int    `json:"volume"`
}

type advancedOrderDoc struct {
	OrderID       string          `json:"order_id"`
	Request       requestDoc      `json:"request"`
	Status        string          `json:"status"`
	FilledVolume  int             `json:"filled_volume"`
	ChildOrders   []childOrderDoc `json:"child_orders"`
	CreatedTime   string          `json:"created_time"`
	SliceSchedule []sliceEntryDoc `json:"slice_schedule"`
}

// AdvancedOrderToJSON serializes ord to its JSON-compatible dict form.
func AdvancedOrderToJSON(ord scheduler.AdvancedOrder) ([]byte, error) {
	children := make([]childOrderDoc, len(ord.ChildOrders))
	for i, c := range ord.ChildOrders {
		doc := childOrderDoc{
			ChildID:     c.ChildID,
			ParentID:    c.ParentID,
			Volume:      c.Volume,
			IsSubmitted: c.IsSubmitted,
			IsFilled:    c.IsFilled,
			PriceOffset: c.PriceOffset,
		}
		if !c.ScheduledTime.IsZero() {
			ts := c.ScheduledTime.Format(time.RFC3339Nano)
			doc.ScheduledTime = &ts
		}
		children[i] = doc
	}

	schedule := make([]sliceEntryDoc, len(ord.SliceSchedule))
	for i, se := range ord.SliceSchedule {
		schedule[i] = sliceEntryDoc{
			ScheduledTime: se.ScheduledTime.Format(time.RFC3339Nano),
			Volume:        se.Volume,
		}
	}

	doc := advancedOrderDoc{
		OrderID: ord.OrderID,
		Request: requestDoc{
			OrderType:            string(ord.Request.OrderType),
			Instruction:          toInstructionDoc(ord.Request.Instruction),
			BatchSize:            ord.Request.BatchSize,
			TimeWindowSeconds:    ord.Request.TimeWindowSeconds,
			NumSlices:            ord.Request.NumSlices,
			VolumeProfile:        ord.Request.VolumeProfile,
			IntervalSeconds:      ord.Request.IntervalSeconds,
			PerOrderVolume:       ord.Request.PerOrderVolume,
			VolumeRandomizeRatio: ord.Request.VolumeRandomizeRatio,
			PriceOffsetTicks:     ord.Request.PriceOffsetTicks,
			PriceTick:            ord.Request.PriceTick,
		},
		Status:        string(ord.Status),
		FilledVolume:  ord.FilledVolume,
		ChildOrders:   children,
		CreatedTime:   ord.CreatedTime.Format(time.RFC3339Nano),
		SliceSchedule: schedule,
	}
	return json.Marshal(doc)
}

// AdvancedOrderFromJSON is the inverse of AdvancedOrderToJSON.
func AdvancedOrderFromJSON(data []byte) (scheduler.AdvancedOrder, error) {
	var doc advancedOrderDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return scheduler.AdvancedOrder{}, err
	}

	createdTime, err := time.Parse(time.RFC3339Nano, doc.CreatedTime)
	if err != nil {
		return scheduler.AdvancedOrder{}, err
	}

	children := make([]*scheduler.ChildOrder, len(doc.ChildOrders))
	for i, c := range doc.ChildOrders {
		child := &scheduler.ChildOrder{
			ChildID:     c.ChildID,
			ParentID:    c.ParentID,
			Volume:      c.Volume,
			IsSubmitted: c.IsSubmitted,
			IsFilled:    c.IsFilled,
			PriceOffset: c.PriceOffset,
		}
		if c.ScheduledTime != nil {
			st, err := time.Parse(time.RFC3339Nano, *c.ScheduledTime)
			if err != nil {
				return scheduler.AdvancedOrder{}, err
			}
			child.ScheduledTime = st
		}
		children[i] = child
	}

	schedule := make([]scheduler.SliceEntry, len(doc.SliceSchedule))
	for i, se := range doc.SliceSchedule {
		st, err := time.Parse(time.RFC3339Nano, se.ScheduledTime)
		if err != nil {
			return scheduler.AdvancedOrder{}, err
		}
		schedule[i] = scheduler.SliceEntry{ScheduledTime: st, Volume: se.Volume}
	}

	return scheduler.AdvancedOrder{
		OrderID: doc.OrderID,
		Request: scheduler.Request{
			OrderType:            scheduler.Type(doc.Request.OrderType),
			Instruction:          doc.Request.Instruction.toInstruction(),
			BatchSize:            doc.Request.BatchSize,
			TimeWindowSeconds:    doc.Request.TimeWindowSeconds,
			NumSlices:            doc.Request.NumSlices,
			VolumeProfile:        doc.Request.VolumeProfile,
			IntervalSeconds:      doc.Request.IntervalSeconds,
			PerOrderVolume:       doc.Request.PerOrderVolume,
			VolumeRandomizeRatio: doc.Request.VolumeRandomizeRatio,
			PriceOffsetTicks:     doc.Request.PriceOffsetTicks,
			PriceTick:            doc.Request.PriceTick,
		},
		Status:        scheduler.Status(doc.Status),
		FilledVolume:  doc.FilledVolume,
		ChildOrders:   children,
		CreatedTime:   createdTime,
		SliceSchedule: schedule,
	}, nil
}
