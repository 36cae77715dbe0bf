package handler

import (
	"net/http"
	"strconv"
	"time"

	"ride-backend/internal/config"
	"ride-backend/internal/domain"
	"ride-backend/internal/usecase"
	"ride-backend/pkg/middleware"
	"ride-backend/pkg/response"

	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	uc  *usecase.ProfileUsecase
	cfg *config.Config
}

func NewProfileHandler(uc *usecase.ProfileUsecase, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{uc: uc, cfg: cfg}
}

// profileImageFields maps multipart field names to patch slots.
var profileImageFields = []string{"profilePicture", "idImage", "passportImage", "traImage"}

// HandleUpdate upserts the caller's profile from a multipart form. Text
// fields not present in the form are left unchanged; uploaded images replace
// the stored ones.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(20 << 20); err != nil {
		response.Error(w, http.StatusBadRequest, "failed to parse form data")
		return
	}
	form := r.MultipartForm

	in := &usecase.ProfileUpdate{
		FirstName:            formPtr(form, "firstName"),
		LastName:             formPtr(form, "lastName"),
		Level:                formPtr(form, "level"),
		LevelOfEducation:     formPtr(form, "levelOfEducation"),
		FreelancerOrEmployed: formPtr(form, "freelancerOrEmployed"),
		IDNumber:             formPtr(form, "idNumber"),
		PassportNumber:       formPtr(form, "passportNumber"),
		TRANumber:            formPtr(form, "traNumber"),
		Bio:                  formPtr(form, "bio"),
	}

	if v := formPtr(form, "age"); v != nil {
		age, err := strconv.Atoi(*v)
		if err != nil || age < 18 || age > 100 {
			response.Error(w, http.StatusBadRequest, "invalid age")
			return
		}
		in.Age = &age
	}
	if v := formPtr(form, "yearsOfExperience"); v != nil {
		years, err := strconv.Atoi(*v)
		if err != nil || years < 0 {
			response.Error(w, http.StatusBadRequest, "invalid years of experience")
			return
		}
		in.YearsOfExperience = &years
	}
	if v := formPtr(form, "languages"); v != nil {
		in.Languages = splitCSV(*v)
	}
	if v := formPtr(form, "carOwnerOrDriver"); v != nil {
		in.CarOwnerOrDriver = splitCSV(*v)
	}

	for _, field := range profileImageFields {
		file, header, err := r.FormFile(field)
		if err != nil {
			continue
		}
		path, err := saveImage(h.cfg, file, header, "profiles")
		file.Close()
		if err != nil {
			writeError(w, err)
			return
		}
		now := time.Now()
		ref := &domain.FileRef{Path: path, UploadedAt: &now}
		switch field {
		case "profilePicture":
			in.ProfilePicture = ref
		case "idImage":
			in.IDImage = ref
		case "passportImage":
			in.PassportImage = ref
		case "traImage":
			in.TRAImage = ref
		}
	}

	p, err := h.uc.Update(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"profile": p,
	})
}

func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, chi.URLParam(r, "userID"))
}

func (h *ProfileHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := h.uc.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"profile": p,
	})
}
