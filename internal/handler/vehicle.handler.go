package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ride-backend/internal/config"
	"ride-backend/internal/domain"
	"ride-backend/internal/usecase"
	"ride-backend/pkg/middleware"
	"ride-backend/pkg/response"
	"ride-backend/pkg/xerrors"

	"github.com/go-chi/chi/v5"
)

type VehicleHandler struct {
	uc  *usecase.VehicleUsecase
	cfg *config.Config
}

func NewVehicleHandler(uc *usecase.VehicleUsecase, cfg *config.Config) *VehicleHandler {
	return &VehicleHandler{uc: uc, cfg: cfg}
}

// collectFiles saves every uploaded image and document and returns their
// refs. Images are capped before any disk work happens.
func (h *VehicleHandler) collectFiles(r *http.Request, existingImages int) ([]domain.FileRef, []domain.FileRef, error) {
	form := r.MultipartForm
	if form == nil {
		return nil, nil, nil
	}

	imageHeaders := form.File["images"]
	if existingImages+len(imageHeaders) > domain.MaxVehicleImages {
		return nil, nil, fmt.Errorf("%w: at most %d images per vehicle", xerrors.ErrInvalidRequest, domain.MaxVehicleImages)
	}

	now := time.Now()
	var images []domain.FileRef
	for _, header := range imageHeaders {
		file, err := header.Open()
		if err != nil {
			return nil, nil, err
		}
		path, err := saveImage(h.cfg, file, header, "vehicles")
		file.Close()
		if err != nil {
			return nil, nil, err
		}
		images = append(images, domain.FileRef{Path: path, UploadedAt: &now})
	}

	var documents []domain.FileRef
	for _, header := range form.File["documents"] {
		file, err := header.Open()
		if err != nil {
			return nil, nil, err
		}
		path, err := saveDocument(h.cfg, file, header, "vehicles/docs")
		file.Close()
		if err != nil {
			return nil, nil, err
		}
		documents = append(documents, domain.FileRef{Path: path, UploadedAt: &now})
	}
	return images, documents, nil
}

func (h *VehicleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.Error(w, http.StatusBadRequest, "failed to parse form data")
		return
	}

	v := &domain.Vehicle{
		UserID:             userID,
		PlateNumber:        r.FormValue("plateNumber"),
		Model:              r.FormValue("model"),
		TripType:           r.FormValue("tripType"),
		Color:              r.FormValue("color"),
		WindowType:         r.FormValue("windowType"),
		Sunroof:            r.FormValue("sunroof") == "true",
		FourByFour:         r.FormValue("fourByFour") == "true",
		AdditionalFeatures: splitCSV(r.FormValue("additionalFeatures")),
	}
	v.SeatCount = 4
	if s := r.FormValue("seatCount"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			response.Error(w, http.StatusBadRequest, "invalid seat count")
			return
		}
		v.SeatCount = n
	}
	if v.WindowType == "" {
		v.WindowType = "glass"
	}

	images, documents, err := h.collectFiles(r, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	v.Images = images
	v.Documents = documents
	if v.Images == nil {
		v.Images = []domain.FileRef{}
	}
	if v.Documents == nil {
		v.Documents = []domain.FileRef{}
	}

	if err := h.uc.Create(r.Context(), v); err != nil {
		// The DB rejected it; the saved files are orphans now.
		paths := make([]string, 0, len(v.Images)+len(v.Documents))
		for _, ref := range append(v.Images, v.Documents...) {
			paths = append(paths, ref.Path)
		}
		removeFiles(h.cfg, paths)
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Vehicle created",
		"vehicle": v,
	})
}

func (h *VehicleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.uc.Get(r.Context(), chi.URLParam(r, "vehicleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"vehicle": v,
	})
}

func (h *VehicleHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.uc.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if vehicles == nil {
		vehicles = []*domain.Vehicle{}
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
	})
}

func (h *VehicleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	vehicleID := chi.URLParam(r, "vehicleID")

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.Error(w, http.StatusBadRequest, "failed to parse form data")
		return
	}
	form := r.MultipartForm

	in := &usecase.VehicleUpdate{
		PlateNumber: formPtr(form, "plateNumber"),
		Model:       formPtr(form, "model"),
		TripType:    formPtr(form, "tripType"),
		Color:       formPtr(form, "color"),
		WindowType:  formPtr(form, "windowType"),
	}
	if v := formPtr(form, "seatCount"); v != nil {
		n, err := strconv.Atoi(*v)
		if err != nil || n < 1 || n > 100 {
			response.Error(w, http.StatusBadRequest, "invalid seat count")
			return
		}
		in.SeatCount = &n
	}
	if v := formPtr(form, "sunroof"); v != nil {
		b := *v == "true"
		in.Sunroof = &b
	}
	if v := formPtr(form, "fourByFour"); v != nil {
		b := *v == "true"
		in.FourByFour = &b
	}
	if v := formPtr(form, "additionalFeatures"); v != nil {
		in.AdditionalFeatures = splitCSV(*v)
	}
	if v := formPtr(form, "removeImagePaths"); v != nil {
		in.RemoveImagePaths = splitCSV(*v)
	}
	if v := formPtr(form, "removeDocumentPaths"); v != nil {
		in.RemoveDocumentPaths = splitCSV(*v)
	}

	// Cap check needs the stored count; the usecase re-validates after the
	// merge, this just avoids writing files we would then throw away.
	current, err := h.uc.Get(r.Context(), vehicleID)
	if err != nil {
		writeError(w, err)
		return
	}
	keeping := len(current.Images) - len(in.RemoveImagePaths)
	if keeping < 0 {
		keeping = 0
	}

	addImages, addDocuments, err := h.collectFiles(r, keeping)
	if err != nil {
		writeError(w, err)
		return
	}
	in.AddImages = addImages
	in.AddDocuments = addDocuments

	v, removed, err := h.uc.Update(r.Context(), userID, vehicleID, in)
	if err != nil {
		paths := make([]string, 0, len(addImages)+len(addDocuments))
		for _, ref := range append(addImages, addDocuments...) {
			paths = append(paths, ref.Path)
		}
		removeFiles(h.cfg, paths)
		writeError(w, err)
		return
	}
	removeFiles(h.cfg, removed)

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Vehicle updated",
		"vehicle": v,
	})
}

func (h *VehicleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	paths, err := h.uc.Delete(r.Context(), userID, chi.URLParam(r, "vehicleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	removeFiles(h.cfg, paths)

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Vehicle deleted",
	})
}
