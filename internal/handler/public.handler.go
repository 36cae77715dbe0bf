package handler

import (
	"net/http"
	"strconv"

	"ride-backend/internal/domain"
	"ride-backend/internal/usecase"
	"ride-backend/pkg/response"
)

type PublicHandler struct {
	vehicles *usecase.VehicleUsecase
}

func NewPublicHandler(vehicles *usecase.VehicleUsecase) *PublicHandler {
	return &PublicHandler{vehicles: vehicles}
}

// HandleListVehicles is the unauthenticated marketplace listing: newest
// first, driver fields limited to the safe subset.
func (h *PublicHandler) HandleListVehicles(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	vehicles, err := h.vehicles.ListPublic(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if vehicles == nil {
		vehicles = []*domain.PublicVehicle{}
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
	})
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
