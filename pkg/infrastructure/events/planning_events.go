package events

import (
	"github.com/vsinha/replenish/pkg/domain/entities"
)

const (
	PlanStartedEvent   = "plan.started"
	PlanCompletedEvent = "plan.completed"

	ForecastDegradedEvent = "forecast.degraded"
	EntityExcludedEvent   = "entity.excluded"

	ShortageIdentifiedEvent = "shortage.identified"
	TransferPlannedEvent    = "transfer.planned"
)

type PlanStarted struct {
	Plan        string `json:"plan"`
	Entities    int    `json:"entities"`
	HorizonDays int    `json:"horizon_days"`
}

type PlanCompleted struct {
	Plan     string `json:"plan"`
	Rows     int    `json:"rows"`
	Excluded int    `json:"excluded"`
}

type ForecastDegraded struct {
	Forecast entities.ForecastResult `json:"forecast"`
}

type EntityExcluded struct {
	Key    entities.EntityKey  `json:"entity"`
	Reason entities.ReasonCode `json:"reason"`
	Detail string              `json:"detail"`
}

type ShortageIdentified struct {
	Status          entities.ShortageStatus `json:"status"`
	QuantityToOrder entities.Quantity       `json:"quantity_to_order"`
}

type TransferPlanned struct {
	Line entities.TransferPlanLine `json:"line"`
}

func NewPlanStartedEvent(runID, plan string, entityCount, horizonDays int) Event {
	return NewEvent(PlanStartedEvent, runID, PlanStarted{
		Plan:        plan,
		Entities:    entityCount,
		HorizonDays: horizonDays,
	})
}

func NewPlanCompletedEvent(runID, plan string, rows, excluded int) Event {
	return NewEvent(PlanCompletedEvent, runID, PlanCompleted{Plan: plan, Rows: rows, Excluded: excluded})
}

func NewForecastDegradedEvent(runID string, forecast entities.ForecastResult) Event {
	return NewEvent(ForecastDegradedEvent, runID, ForecastDegraded{Forecast: forecast})
}

func NewEntityExcludedEvent(runID string, err *entities.EntityError) Event {
	detail := ""
	if err.Err != nil {
		detail = err.Err.Error()
	}
	return NewEvent(EntityExcludedEvent, runID, EntityExcluded{Key: err.Key, Reason: err.Reason, Detail: detail})
}

func NewShortageIdentifiedEvent(runID string, status entities.ShortageStatus, orderQty entities.Quantity) Event {
	return NewEvent(ShortageIdentifiedEvent, runID, ShortageIdentified{
		Status:          status,
		QuantityToOrder: orderQty,
	})
}

func NewTransferPlannedEvent(runID string, line entities.TransferPlanLine) Event {
	return NewEvent(TransferPlannedEvent, runID, TransferPlanned{Line: line})
}
