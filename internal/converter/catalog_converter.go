package converter

import (
	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/entity"
)

func AppointmentTypeToResponse(at entity.AppointmentType) dto.AppointmentTypeResponse {
	return dto.AppointmentTypeResponse{
		ID:                        at.ID,
		Name:                      at.Name,
		Category:                  at.Category,
		Description:               at.Description,
		DurationMinutes:           at.DurationMinutes,
		RecommendedIntervalMonths: at.RecommendedIntervalMonths,
		Copay:                     at.Copay,
	}
}

func AppointmentTypesToListResponse(types []entity.AppointmentType) *dto.AppointmentTypeListResponse {
	responses := make([]dto.AppointmentTypeResponse, len(types))
	for i, at := range types {
		responses[i] = AppointmentTypeToResponse(at)
	}
	return &dto.AppointmentTypeListResponse{AppointmentTypes: responses, Total: len(responses)}
}

func DoctorsToListResponse(doctors []entity.Doctor) *dto.DoctorListResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i, d := range doctors {
		responses[i] = dto.DoctorResponse{
			ID:        d.ID,
			Name:      d.Name,
			Specialty: d.Specialty,
			Location:  d.Location,
			Rating:    d.Rating,
		}
	}
	return &dto.DoctorListResponse{Doctors: responses, Total: len(responses)}
}

func RecommendationsToListResponse(recs []entity.Recommendation) *dto.RecommendationListResponse {
	responses := make([]dto.RecommendationResponse, len(recs))
	for i, rec := range recs {
		responses[i] = dto.RecommendationResponse{
			Type:   AppointmentTypeToResponse(rec.Type),
			Reason: rec.Reason,
			DueBy:  rec.DueBy,
		}
	}
	return &dto.RecommendationListResponse{Recommendations: responses, Total: len(responses)}
}
