package ledger

import (
	"github.com/mtax/backend/internal/domain/shared"
)

// moduleServiceTypes maps each module to the demand service types it may adjust.
// UNIFIED is absent on purpose: it is decided by CheckModuleCompatibility
// from the demand's remarks.
var moduleServiceTypes = map[ModuleType][]ServiceType{
	ModuleTypeProperty: {ServiceTypeHouseTax},
	ModuleTypeD2DC:     {ServiceTypeD2DC, ServiceTypeHouseTax},
	ModuleTypeWater:    {ServiceTypeWaterTax},
	ModuleTypeShop:     {ServiceTypeShopTax},
}

// CheckModuleCompatibility verifies that a demand can be adjusted under the
// requested module. A UNIFIED request is accepted only for demands marked
// unified whose service type is HOUSE_TAX or WATER_TAX.
func CheckModuleCompatibility(module ModuleType, d *Demand) error {
	if module == ModuleTypeUnified {
		if d.IsUnified() && (d.ServiceType == ServiceTypeHouseTax || d.ServiceType == ServiceTypeWaterTax) {
			return nil
		}
		return moduleMismatch(module, d)
	}

	for _, st := range moduleServiceTypes[module] {
		if st == d.ServiceType {
			return nil
		}
	}
	return moduleMismatch(module, d)
}

func moduleMismatch(module ModuleType, d *Demand) *shared.DomainError {
	return ErrModuleMismatch.
		Withf("Demand %s has service type %s which cannot be adjusted under module %s",
			d.Label(), d.ServiceType, module).
		WithDetails(map[string]any{
			"module_type":  module.String(),
			"service_type": d.ServiceType.String(),
		})
}
