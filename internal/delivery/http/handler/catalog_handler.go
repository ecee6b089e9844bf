package handler

import (
	"net/http"

	"wellness-appointments/internal/converter"
	"wellness-appointments/pkg/response"

	"github.com/sirupsen/logrus"
)

type CatalogHandler struct {
	stores StoreProvider
	log    *logrus.Logger
}

func NewCatalogHandler(stores StoreProvider, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		stores: stores,
		log:    log,
	}
}

func (h *CatalogHandler) ListAppointmentTypes(w http.ResponseWriter, r *http.Request) {
	store, ok := resolveStore(w, r, h.stores, h.log)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, "Appointment types retrieved successfully", converter.AppointmentTypesToListResponse(store.AppointmentTypes()))
}

// ListDoctors handles the provider directory, optionally filtered with ?specialty=
func (h *CatalogHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	store, ok := resolveStore(w, r, h.stores, h.log)
	if !ok {
		return
	}

	doctors := store.Doctors(r.URL.Query().Get("specialty"))
	response.Success(w, http.StatusOK, "Doctors retrieved successfully", converter.DoctorsToListResponse(doctors))
}

// ListRecommended handles the preventive-care types the caller is due for
func (h *CatalogHandler) ListRecommended(w http.ResponseWriter, r *http.Request) {
	store, ok := resolveStore(w, r, h.stores, h.log)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, "Recommended appointments retrieved successfully", converter.RecommendationsToListResponse(store.RecommendedAppointments()))
}
