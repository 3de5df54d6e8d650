// Package queue defines message payloads exchanged over the message broker.
package queue

// EntryCompletedEvent is published when a car entry is closed and billed.
// It contains enough information for downstream consumers to print a
// receipt, notify, or feed analytics without querying the primary database.
type EntryCompletedEvent struct {
    EntryID       uint64  `json:"entry_id"`
    TicketNumber  string  `json:"ticket_number"`
    PlateNumber   string  `json:"plate_number"`
    LotCode       string  `json:"lot_code"`
    LotName       string  `json:"lot_name"`
    EntryTime     string  `json:"entry_time"`
    ExitTime      string  `json:"exit_time"`
    BillableHours int64   `json:"billable_hours"`
    FeePerHour    float64 `json:"fee_per_hour"`
    Charge        float64 `json:"charge"`
    CompletedAt   string  `json:"completed_at"`
}
