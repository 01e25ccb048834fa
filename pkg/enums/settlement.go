package enums

import "fmt"

// SettlementTrigger records which entry point performed a settlement.
type SettlementTrigger string

const (
	SettlementTriggerWebhook  SettlementTrigger = "webhook"
	SettlementTriggerFallback SettlementTrigger = "fallback"
)

func (t SettlementTrigger) IsValid() bool {
	return t == SettlementTriggerWebhook || t == SettlementTriggerFallback
}

// SettlementStatus maps to the settlement_status_enum enum in Postgres.
type SettlementStatus string

const (
	// SettlementStatusCompleted means the full sequence committed.
	SettlementStatusCompleted SettlementStatus = "completed"
	// SettlementStatusSuperseded means the ownership CAS lost to a
	// concurrent transfer and index maintenance was skipped.
	SettlementStatusSuperseded SettlementStatus = "superseded"
)

func (s SettlementStatus) IsValid() bool {
	return s == SettlementStatusCompleted || s == SettlementStatusSuperseded
}

func ParseSettlementTrigger(value string) (SettlementTrigger, error) {
	t := SettlementTrigger(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid settlement trigger %q", value)
	}
	return t, nil
}
