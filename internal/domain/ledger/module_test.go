package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckModuleCompatibility(t *testing.T) {
	tests := []struct {
		name        string
		module      ModuleType
		serviceType ServiceType
		remarks     string
		wantErr     bool
	}{
		{"property on house tax", ModuleTypeProperty, ServiceTypeHouseTax, "", false},
		{"property on water tax", ModuleTypeProperty, ServiceTypeWaterTax, "", true},
		{"d2dc on d2dc", ModuleTypeD2DC, ServiceTypeD2DC, "", false},
		{"d2dc on house tax", ModuleTypeD2DC, ServiceTypeHouseTax, "", false},
		{"water on water tax", ModuleTypeWater, ServiceTypeWaterTax, "", false},
		{"water on shop tax", ModuleTypeWater, ServiceTypeShopTax, "", true},
		{"shop on shop tax", ModuleTypeShop, ServiceTypeShopTax, "", false},
		{"shop on house tax", ModuleTypeShop, ServiceTypeHouseTax, "", true},
		{"unified marked house tax", ModuleTypeUnified, ServiceTypeHouseTax, "Unified demand FY 2026-27", false},
		{"unified marked water tax", ModuleTypeUnified, ServiceTypeWaterTax, "UNIFIED", false},
		{"unified without marker", ModuleTypeUnified, ServiceTypeHouseTax, "regular demand", true},
		{"unified marked shop tax", ModuleTypeUnified, ServiceTypeShopTax, "UNIFIED", true},
		{"unknown module", ModuleType("PARKING"), ServiceTypeHouseTax, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDemand(tt.serviceType, "100", "0", "0")
			d.Remarks = tt.remarks

			err := CheckModuleCompatibility(tt.module, d)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrModuleMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestModuleType_AllowedFor(t *testing.T) {
	assert.True(t, ModuleTypeUnified.AllowedFor(AdjustmentKindDiscount))
	assert.False(t, ModuleTypeUnified.AllowedFor(AdjustmentKindPenaltyWaiver))
	for _, m := range []ModuleType{ModuleTypeProperty, ModuleTypeWater, ModuleTypeShop, ModuleTypeD2DC} {
		assert.True(t, m.AllowedFor(AdjustmentKindDiscount), m)
		assert.True(t, m.AllowedFor(AdjustmentKindPenaltyWaiver), m)
	}
	assert.False(t, ModuleType("").AllowedFor(AdjustmentKindDiscount))
}
