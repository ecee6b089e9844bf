package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppointmentType is a bookable kind of visit offered under the wellness plan
type AppointmentType struct {
	ID                        int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                      string          `gorm:"type:varchar(150);uniqueIndex;not null" json:"name"`
	Category                  string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Description               string          `gorm:"type:text" json:"description,omitempty"`
	DurationMinutes           int             `gorm:"not null;default:30" json:"duration_minutes"`
	RecommendedIntervalMonths int             `gorm:"not null;default:0" json:"recommended_interval_months"`
	Copay                     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"copay"`
	CreatedAt                 time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (AppointmentType) TableName() string {
	return "appointment_types"
}

// Doctor is an in-network provider
type Doctor struct {
	ID        int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(150);not null" json:"name"`
	Specialty string          `gorm:"type:varchar(100);not null;index" json:"specialty"`
	Location  string          `gorm:"type:varchar(255)" json:"location"`
	Rating    decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// Recommendation suggests a checkup the user is due for
type Recommendation struct {
	Type   AppointmentType `json:"type"`
	Reason string          `json:"reason"`
	DueBy  string          `json:"due_by"` // Format: YYYY-MM-DD
}
