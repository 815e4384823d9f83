package dto

// SettingsPatch is a partial update. Nil fields are left untouched.
type SettingsPatch struct {
	Preset          *string               `json:"preset,omitempty"`
	ConsumptionMode *string               `json:"consumptionMode,omitempty"`
	QtyPrecision    *QtyPrecisionPatch    `json:"qtyPrecision,omitempty"`
	LowStockRules   *LowStockRulesPatch   `json:"lowStockRules,omitempty"`
	AlertRecipients *AlertRecipientsPatch `json:"alertRecipients,omitempty"`
	Permissions     *PermissionsPatch     `json:"permissions,omitempty"`
}

type QtyPrecisionPatch struct {
	MaxDecimals *int `json:"maxDecimals,omitempty"`
}

type LowStockRulesPatch struct {
	EnableReorderPoint   *bool `json:"enableReorderPoint,omitempty"`
	AlertOnNegative      *bool `json:"alertOnNegative,omitempty"`
	AlertCooldownMinutes *int  `json:"alertCooldownMinutes,omitempty"`
}

type AlertRecipientsPatch struct {
	// Roles replaces the role list when non-nil.
	Roles               []string `json:"roles,omitempty"`
	IncludeOrderOwner   *bool    `json:"includeOrderOwner,omitempty"`
	FallbackToRolesOnly *bool    `json:"fallbackToRolesOnly,omitempty"`
}

type PermissionsPatch struct {
	ProductionCanConsume *bool `json:"productionCanConsume,omitempty"`
	ProductionCanReceive *bool `json:"productionCanReceive,omitempty"`
	ProductionCanAdjust  *bool `json:"productionCanAdjust,omitempty"`
}
