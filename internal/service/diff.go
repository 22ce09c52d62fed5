package service

import (
	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

// idPlan is the set difference between existing and desired ids
type idPlan struct {
	Add    []uuid.UUID // desired − existing, in desired order
	Remove []uuid.UUID // existing − desired, in existing order
}

func (p idPlan) Empty() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0
}

func diffIDs(existing, desired []uuid.UUID) idPlan {
	have := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		have[id] = struct{}{}
	}
	want := make(map[uuid.UUID]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}

	plan := idPlan{Add: []uuid.UUID{}, Remove: []uuid.UUID{}}
	added := make(map[uuid.UUID]struct{})
	for _, id := range desired {
		if _, ok := have[id]; ok {
			continue
		}
		if _, ok := added[id]; ok {
			continue
		}
		added[id] = struct{}{}
		plan.Add = append(plan.Add, id)
	}
	removed := make(map[uuid.UUID]struct{})
	for _, id := range existing {
		if _, ok := want[id]; ok {
			continue
		}
		if _, ok := removed[id]; ok {
			continue
		}
		removed[id] = struct{}{}
		plan.Remove = append(plan.Remove, id)
	}
	return plan
}

type quantityChange struct {
	Allocation domain.ProductColorSize
	Quantity   int
}

// allocationPlan reconciles the allocations of one variant, keyed by size
type allocationPlan struct {
	Create []domain.SizeAllocationSpec
	Update []quantityChange
	Delete []domain.ProductColorSize
}

func planAllocations(existing []domain.ProductColorSize, desired []domain.SizeAllocationSpec) allocationPlan {
	bySize := make(map[uuid.UUID]domain.ProductColorSize, len(existing))
	for _, a := range existing {
		bySize[a.SizeID] = a
	}

	var plan allocationPlan
	wanted := make(map[uuid.UUID]struct{}, len(desired))
	for _, d := range desired {
		wanted[d.SizeID] = struct{}{}
		if current, ok := bySize[d.SizeID]; ok {
			plan.Update = append(plan.Update, quantityChange{Allocation: current, Quantity: d.Quantity})
			continue
		}
		plan.Create = append(plan.Create, d)
	}
	for _, a := range existing {
		if _, ok := wanted[a.SizeID]; !ok {
			plan.Delete = append(plan.Delete, a)
		}
	}
	return plan
}

func (p allocationPlan) createSizeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Create))
	for _, c := range p.Create {
		ids = append(ids, c.SizeID)
	}
	return ids
}
