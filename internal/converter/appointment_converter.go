package converter

import (
	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(apt *entity.Appointment) *dto.AppointmentResponse {
	if apt == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:     apt.ID,
		UserID: apt.UserID,
		Type: dto.AppointmentTypeRefResponse{
			Name:     apt.Type.Name,
			Category: apt.Type.Category,
		},
		Provider: dto.ProviderRefResponse{
			Name:      apt.Provider.Name,
			Specialty: apt.Provider.Specialty,
			Location:  apt.Provider.Location,
		},
		Date:               apt.Date,
		Time:               apt.Time,
		Status:             string(apt.Status),
		Location:           apt.Location,
		Notes:              apt.Notes,
		CancellationReason: apt.CancellationReason,
		CreatedAt:          apt.CreatedAt,
		UpdatedAt:          apt.UpdatedAt,
	}
}

// AppointmentsToListResponse wraps a slice of appointments with its total
func AppointmentsToListResponse(appointments []entity.Appointment) *dto.AppointmentListResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return &dto.AppointmentListResponse{
		Appointments: responses,
		Total:        len(responses),
	}
}
