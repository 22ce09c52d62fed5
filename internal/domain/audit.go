package domain

import (
	"time"
)

// Actor is the authenticated user a pipeline runs on behalf of
type Actor struct {
	ID   string
	Name string
	Role string
}

type Action string

const (
	ActionCreate Action = "Create"
	ActionUpdate Action = "Update"
	ActionDelete Action = "Delete"
)

type EntityType string

const (
	EntityProduct          EntityType = "Product"
	EntityProductNameTag   EntityType = "ProductNameTag"
	EntityProductColor     EntityType = "ProductColor"
	EntityProductColorSize EntityType = "ProductColorSize"
	EntityBrand            EntityType = "Brand"
	EntityColor            EntityType = "Color"
	EntitySize             EntityType = "Size"
	EntityNameTag          EntityType = "NameTag"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// AuditRecord describes one write performed, or attempted, by an actor
type AuditRecord struct {
	ActorID     string     `json:"actor_id"`
	ActorName   string     `json:"actor_name"`
	Action      Action     `json:"action"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Timestamp   time.Time  `json:"timestamp"`
	Outcome     Outcome    `json:"outcome"`
	ErrorDetail string     `json:"error_detail,omitempty"`
}
