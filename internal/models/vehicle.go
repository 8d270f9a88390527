package models

import "time"

// EVModel holds the published specification of an electric vehicle model.
type EVModel struct {
	ID                  int64     `json:"id"`
	ModelName           *string   `json:"model_name"`
	Manufacturer        *string   `json:"manufacturer"`
	BatteryCapacityKwh  *float64  `json:"battery_capacity_kwh"`
	RangeKm             *float64  `json:"range_km"`
	ChargingPowerKw     *float64  `json:"charging_power_kw"`
	FastChargingSupport *bool     `json:"fast_charging_support"`
	ReleaseYear         *int      `json:"release_year"`
	VehicleType         *string   `json:"vehicle_type"`
	PriceUSD            *float64  `json:"price_usd"`
	CreatedAt           time.Time `json:"created_at"`
}

type VehicleFilter struct {
	Skip         int
	Limit        int
	Manufacturer *string
}

type VehicleStats struct {
	TotalVehicles int    `json:"total_vehicles"`
	Manufacturers int    `json:"manufacturers"`
	Message       string `json:"message"`
}
