package model

import "time"

type Preset string

const (
	PresetLightweight Preset = "LIGHTWEIGHT"
	PresetAssisted    Preset = "ASSISTED"
	PresetStrict      Preset = "STRICT"
)

func (p Preset) Valid() bool {
	switch p {
	case PresetLightweight, PresetAssisted, PresetStrict:
		return true
	}
	return false
}

// Mode returns the consumption mode implied by a preset.
func (p Preset) Mode() ConsumptionMode {
	switch p {
	case PresetLightweight:
		return ModeNoBom
	case PresetStrict:
		return ModeBomStrict
	default:
		return ModeBomAssisted
	}
}

type ConsumptionMode string

const (
	ModeNoBom       ConsumptionMode = "NO_BOM"
	ModeBomAssisted ConsumptionMode = "BOM_ASSISTED"
	ModeBomStrict   ConsumptionMode = "BOM_STRICT"
)

func (m ConsumptionMode) Valid() bool {
	switch m {
	case ModeNoBom, ModeBomAssisted, ModeBomStrict:
		return true
	}
	return false
}

const MaxAlertCooldownMinutes = 7 * 24 * 60

type QtyPrecision struct {
	MaxDecimals int `json:"maxDecimals"`
}

type LowStockRules struct {
	EnableReorderPoint   bool `json:"enableReorderPoint"`
	AlertOnNegative      bool `json:"alertOnNegative"`
	AlertCooldownMinutes int  `json:"alertCooldownMinutes"`
}

// Cooldown is the minimum spacing between two alerts for one material.
func (r LowStockRules) Cooldown() time.Duration {
	return time.Duration(r.AlertCooldownMinutes) * time.Minute
}

type AlertRecipients struct {
	Roles               []string `json:"roles"`
	IncludeOrderOwner   bool     `json:"includeOrderOwner"`
	FallbackToRolesOnly bool     `json:"fallbackToRolesOnly"`
}

type Permissions struct {
	ProductionCanConsume bool `json:"productionCanConsume"`
	ProductionCanReceive bool `json:"productionCanReceive"`
	ProductionCanAdjust  bool `json:"productionCanAdjust"`
}

// Settings is the tenant's inventory configuration. Callers receive it by value as a
// snapshot; a batch keeps using the snapshot it started with.
type Settings struct {
	TenantID        string          `json:"tenantId"`
	Preset          Preset          `json:"preset"`
	ConsumptionMode ConsumptionMode `json:"consumptionMode"`
	QtyPrecision    QtyPrecision    `json:"qtyPrecision"`
	LowStockRules   LowStockRules   `json:"lowStockRules"`
	AlertRecipients AlertRecipients `json:"alertRecipients"`
	Permissions     Permissions     `json:"permissions"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func DefaultSettings(tenantID string) Settings {
	return Settings{
		TenantID:        tenantID,
		Preset:          PresetAssisted,
		ConsumptionMode: ModeBomAssisted,
		QtyPrecision:    QtyPrecision{MaxDecimals: DefaultMaxDecimals},
		LowStockRules: LowStockRules{
			EnableReorderPoint:   true,
			AlertOnNegative:      true,
			AlertCooldownMinutes: 60,
		},
		AlertRecipients: AlertRecipients{
			Roles:               []string{"admin", "inventory_manager"},
			FallbackToRolesOnly: true,
		},
		Permissions: Permissions{
			ProductionCanConsume: true,
		},
	}
}

// Places is the rounding precision as used by RoundQty.
func (s Settings) Places() int32 {
	return int32(ClampDecimals(s.QtyPrecision.MaxDecimals))
}

// Clone copies the slice fields so a snapshot can't be mutated through its original.
func (s Settings) Clone() Settings {
	s.AlertRecipients.Roles = append([]string(nil), s.AlertRecipients.Roles...)
	return s
}
