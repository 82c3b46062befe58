// internal/service/entitlement/compute.go
package entitlement

import (
	"strconv"
	"strings"
	"time"

	"motormart-service/internal/domain/payment"
	"motormart-service/internal/domain/pricing"
	"motormart-service/internal/domain/taxonomy"
)

const noPackageMessage = "No active package. Purchase a package to post ads."

// Input is everything Compute needs; it is assembled by Service from storage.
type Input struct {
	Subscription *pricing.UserSubscription
	Package      *pricing.PriceItem
	Limits       []*pricing.PackageAdLimit
	Features     []*pricing.PackageFeature
	Ledger       []pricing.UsageRecord
	LegacyOrders []string
	Types        []*taxonomy.VehicleType
	Now          time.Time
}

// Compute derives remaining quotas from a subscription, its package limits and
// the usage recorded since the subscription started. It performs no I/O.
func Compute(in Input) *pricing.Entitlement {
	ent := &pricing.Entitlement{ComputedAt: in.Now}
	if in.Subscription == nil || !in.Subscription.ValidAt(in.Now) {
		ent.Message = noPackageMessage
		return ent
	}
	ent.HasPackage = true
	ent.Subscription = in.Subscription
	ent.Package = in.Package

	typeByName := make(map[string]*taxonomy.VehicleType, len(in.Types))
	typeByID := make(map[int64]*taxonomy.VehicleType, len(in.Types))
	for _, t := range in.Types {
		typeByName[normalizeName(t.Name)] = t
		typeByID[t.ID] = t
	}

	used := map[int64]int{}
	total := 0
	for _, rec := range in.Ledger {
		if rec.At.Before(in.Subscription.StartDate) {
			continue
		}
		id, ok := resolveType(rec, typeByName)
		if !ok {
			continue
		}
		used[id]++
		total++
	}
	for _, orderID := range in.LegacyOrders {
		text, ok := payment.LegacyTypeText(orderID)
		if !ok {
			continue
		}
		t := matchLegacyType(text, in.Types)
		if t == nil {
			continue
		}
		used[t.ID]++
		total++
	}
	ent.TotalUsed = total

	ent.PerType = make([]pricing.TypeEntitlement, 0, len(in.Limits))
	for _, l := range in.Limits {
		name := l.VehicleTypeName
		if name == "" {
			if t, ok := typeByID[l.VehicleTypeID]; ok {
				name = t.Name
			}
		}
		te := pricing.TypeEntitlement{
			VehicleTypeID:   l.VehicleTypeID,
			VehicleTypeName: name,
			Limit:           l.Quantity,
			IsUnlimited:     l.IsUnlimited,
			Used:            used[l.VehicleTypeID],
		}
		te.Remaining = remaining(te.Limit, te.Used, te.IsUnlimited)
		ent.PerType = append(ent.PerType, te)
	}

	ent.Global = globalQuota(in.Features, total)
	return ent
}

func globalQuota(features []*pricing.PackageFeature, totalUsed int) *pricing.GlobalQuota {
	var freeLimit *int
	unlimited := false
	for _, f := range features {
		switch strings.ToUpper(strings.TrimSpace(f.Key)) {
		case pricing.FeatureUnlimitedAds:
			unlimited = parseBool(f.Value)
		case pricing.FeatureFreeAdsLimit:
			if n, err := strconv.Atoi(strings.TrimSpace(f.Value)); err == nil && n >= 0 {
				freeLimit = &n
			}
		}
	}

	switch {
	case unlimited:
		return &pricing.GlobalQuota{IsUnlimited: true, Used: totalUsed, Remaining: pricing.UnlimitedRemaining}
	case freeLimit != nil:
		return &pricing.GlobalQuota{
			Limit:     *freeLimit,
			Used:      totalUsed,
			Remaining: remaining(*freeLimit, totalUsed, false),
		}
	}
	return nil
}

func remaining(limit, used int, unlimited bool) int {
	if unlimited {
		return pricing.UnlimitedRemaining
	}
	if left := limit - used; left > 0 {
		return left
	}
	return 0
}

func resolveType(rec pricing.UsageRecord, byName map[string]*taxonomy.VehicleType) (int64, bool) {
	if rec.VehicleTypeID != nil {
		return *rec.VehicleTypeID, true
	}
	if t, ok := byName[normalizeName(rec.VehicleTypeName)]; ok {
		return t.ID, true
	}
	return 0, false
}

// matchLegacyType picks the longest type name that is the whole text or is
// followed by "-<ref>", compared case-insensitively.
func matchLegacyType(text string, types []*taxonomy.VehicleType) *taxonomy.VehicleType {
	text = normalizeName(text)
	var best *taxonomy.VehicleType
	bestLen := 0
	for _, t := range types {
		name := normalizeName(t.Name)
		if name == "" || len(name) <= bestLen {
			continue
		}
		if text == name || strings.HasPrefix(text, name+"-") {
			best, bestLen = t, len(name)
		}
	}
	return best
}

func normalizeName(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
