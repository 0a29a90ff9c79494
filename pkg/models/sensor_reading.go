package models

import (
	"time"

	"github.com/google/uuid"
)

// SensorSource tags where a sensor reading came from.
type SensorSource string

const (
	SensorSourceManual  SensorSource = "manual"
	SensorSourceIoT     SensorSource = "iot"
	SensorSourceStation SensorSource = "station"
)

// SensorReading is one observed set of daily weather variables for a farm.
// At most one reading exists per (farm, date); writes upsert on that key.
type SensorReading struct {
	ID             uuid.UUID    `json:"id"`
	FarmID         uuid.UUID    `json:"farm_id"`
	Date           time.Time    `json:"date"`
	TempMax        *float64     `json:"temp_max,omitempty"`
	TempMin        *float64     `json:"temp_min,omitempty"`
	TempCurrent    *float64     `json:"temp_current,omitempty"`
	Humidity       *float64     `json:"humidity,omitempty"`
	WindSpeed      *float64     `json:"wind_speed,omitempty"`
	SolarRadiation *float64     `json:"solar_radiation,omitempty"`
	Rainfall       *float64     `json:"rainfall,omitempty"`
	Source         SensorSource `json:"source"`
	QualityChecked bool         `json:"quality_checked"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
