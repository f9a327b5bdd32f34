package ledger

import (
	"context"
	"fmt"
)

// OwnerStrategy resolves the entity (property, water connection or shop)
// that owns a demand for one family of modules.
type OwnerStrategy interface {
	// Name identifies the strategy in logs
	Name() string
	// Supports reports whether the strategy handles the module
	Supports(module ModuleType) bool
	// ResolveOwner returns the owning entity id of the demand
	ResolveOwner(ctx context.Context, d *Demand) (int64, error)
}

// propertyOwnerStrategy reads the property link carried on the demand
type propertyOwnerStrategy struct{}

func (propertyOwnerStrategy) Name() string { return "property" }

func (propertyOwnerStrategy) Supports(module ModuleType) bool {
	return module == ModuleTypeProperty || module == ModuleTypeD2DC || module == ModuleTypeUnified
}

func (propertyOwnerStrategy) ResolveOwner(_ context.Context, d *Demand) (int64, error) {
	if d.PropertyID == nil {
		return 0, ErrAssessmentNotFound.Withf("Demand %s is not linked to a property", d.Label())
	}
	return *d.PropertyID, nil
}

// waterOwnerStrategy follows demand -> water tax assessment -> water connection
type waterOwnerStrategy struct {
	assessments AssessmentRepository
}

func (waterOwnerStrategy) Name() string { return "water" }

func (waterOwnerStrategy) Supports(module ModuleType) bool {
	return module == ModuleTypeWater
}

func (s waterOwnerStrategy) ResolveOwner(ctx context.Context, d *Demand) (int64, error) {
	if d.WaterTaxAssessmentID == nil {
		return 0, ErrAssessmentNotFound.Withf("Demand %s is not linked to a water tax assessment", d.Label())
	}
	connectionID, err := s.assessments.FindWaterConnectionID(ctx, *d.WaterTaxAssessmentID)
	if err != nil {
		return 0, fmt.Errorf("resolve water connection for demand %d: %w", d.ID, err)
	}
	return connectionID, nil
}

// shopOwnerStrategy follows demand -> shop tax assessment -> shop
type shopOwnerStrategy struct {
	assessments AssessmentRepository
}

func (shopOwnerStrategy) Name() string { return "shop" }

func (shopOwnerStrategy) Supports(module ModuleType) bool {
	return module == ModuleTypeShop
}

func (s shopOwnerStrategy) ResolveOwner(ctx context.Context, d *Demand) (int64, error) {
	if d.ShopTaxAssessmentID == nil {
		return 0, ErrAssessmentNotFound.Withf("Demand %s is not linked to a shop tax assessment", d.Label())
	}
	shopID, err := s.assessments.FindShopID(ctx, *d.ShopTaxAssessmentID)
	if err != nil {
		return 0, fmt.Errorf("resolve shop for demand %d: %w", d.ID, err)
	}
	return shopID, nil
}

// OwnershipResolver evaluates an ordered list of strategies; the first one
// supporting the module decides.
type OwnershipResolver struct {
	strategies []OwnerStrategy
}

// NewOwnershipResolver creates the resolver with the standard chain:
// property, then water, then shop.
func NewOwnershipResolver(assessments AssessmentRepository) *OwnershipResolver {
	return NewOwnershipResolverWith(
		propertyOwnerStrategy{},
		waterOwnerStrategy{assessments: assessments},
		shopOwnerStrategy{assessments: assessments},
	)
}

// NewOwnershipResolverWith creates a resolver from explicit strategies
func NewOwnershipResolverWith(strategies ...OwnerStrategy) *OwnershipResolver {
	return &OwnershipResolver{strategies: strategies}
}

// ResolveOwner returns the entity id that owns the demand under the module
func (r *OwnershipResolver) ResolveOwner(ctx context.Context, module ModuleType, d *Demand) (int64, error) {
	for _, s := range r.strategies {
		if s.Supports(module) {
			return s.ResolveOwner(ctx, d)
		}
	}
	return 0, NewValidationError("module_type", "No ownership rule for module "+module.String())
}

// VerifyOwner fails with ENTITY_MISMATCH unless the demand belongs to entityID
func (r *OwnershipResolver) VerifyOwner(ctx context.Context, module ModuleType, d *Demand, entityID int64) error {
	owner, err := r.ResolveOwner(ctx, module, d)
	if err != nil {
		return err
	}
	if owner != entityID {
		return ErrEntityMismatch.
			Withf("Demand %s belongs to %s %d, not %d", d.Label(), module, owner, entityID).
			WithDetails(map[string]any{
				"module_type":     module.String(),
				"entity_id":       entityID,
				"owner_entity_id": owner,
			})
	}
	return nil
}
