package domain

import "time"

// CostComponent is one priced usage line inside a resource's cost.
type CostComponent struct {
	Type        string  // compute, storage, operations
	Value       float64 // usage quantity
	Unit        string
	TotalAmount float64
	Rate        float64
	Currency    string
	Description string
}

// CostDef describes the entity a cost row belongs to.
type CostDef struct {
	Provider Provider
	Service  string
	Name     string
	Region   string
	Account  string
}

// ResourceCost is a billed usage row for one service over a time window.
type ResourceCost struct {
	StartTime time.Time
	EndTime   time.Time
	Resource  CostDef
	Costs     []CostComponent
}
