package pricing

import "time"

// TypeEntitlement is the posting quota for one vehicle type.
type TypeEntitlement struct {
	VehicleTypeID   int64  `json:"vehicle_type_id"`
	VehicleTypeName string `json:"vehicle_type_name"`
	Limit           int    `json:"limit"`
	IsUnlimited     bool   `json:"is_unlimited"`
	Used            int    `json:"used"`
	Remaining       int    `json:"remaining"`
}

// GlobalQuota comes from the FREE_ADS_LIMIT / IS_UNLIMITED_ADS package features.
type GlobalQuota struct {
	Limit       int  `json:"limit"`
	IsUnlimited bool `json:"is_unlimited"`
	Used        int  `json:"used"`
	Remaining   int  `json:"remaining"`
}

// Entitlement is the computed remaining-usage state for a user.
type Entitlement struct {
	HasPackage   bool              `json:"has_package"`
	Message      string            `json:"message,omitempty"`
	Subscription *UserSubscription `json:"subscription,omitempty"`
	Package      *PriceItem        `json:"package,omitempty"`
	PerType      []TypeEntitlement `json:"per_type,omitempty"`
	Global       *GlobalQuota      `json:"global,omitempty"`
	TotalUsed    int               `json:"total_used"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// ForType returns the per-type quota row for vehicleTypeID.
func (e *Entitlement) ForType(vehicleTypeID int64) (TypeEntitlement, bool) {
	for _, t := range e.PerType {
		if t.VehicleTypeID == vehicleTypeID {
			return t, true
		}
	}
	return TypeEntitlement{}, false
}

// CanPost reports whether one more ad of the given type fits the entitlement.
// A type without its own limit row falls back to the global quota.
func (e *Entitlement) CanPost(vehicleTypeID int64) bool {
	if e == nil || !e.HasPackage {
		return false
	}
	if t, ok := e.ForType(vehicleTypeID); ok {
		return t.IsUnlimited || t.Remaining > 0
	}
	if e.Global != nil {
		return e.Global.IsUnlimited || e.Global.Remaining > 0
	}
	return false
}

// UsageRecord attributes one posting to a vehicle type.
type UsageRecord struct {
	VehicleTypeID   *int64
	VehicleTypeName string
	At              time.Time
}
