package dto

import "github.com/shopspring/decimal"

type AppointmentTypeResponse struct {
	ID                        int             `json:"id"`
	Name                      string          `json:"name"`
	Category                  string          `json:"category"`
	Description               string          `json:"description,omitempty"`
	DurationMinutes           int             `json:"duration_minutes"`
	RecommendedIntervalMonths int             `json:"recommended_interval_months"`
	Copay                     decimal.Decimal `json:"copay"`
}

type DoctorResponse struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Specialty string          `json:"specialty"`
	Location  string          `json:"location"`
	Rating    decimal.Decimal `json:"rating"`
}

type RecommendationResponse struct {
	Type   AppointmentTypeResponse `json:"type"`
	Reason string                  `json:"reason"`
	DueBy  string                  `json:"due_by"`
}

type AppointmentTypeListResponse struct {
	AppointmentTypes []AppointmentTypeResponse `json:"appointment_types"`
	Total            int                       `json:"total"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}

type RecommendationListResponse struct {
	Recommendations []RecommendationResponse `json:"recommendations"`
	Total           int                      `json:"total"`
}
