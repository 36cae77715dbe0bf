package handler

import (
	"ride-backend/internal/config"
	"ride-backend/internal/usecase"
)

type AuthHandler struct {
	uc  *usecase.AuthUsecase
	cfg *config.Config
}

func NewAuthHandler(uc *usecase.AuthUsecase, cfg *config.Config) *AuthHandler {
	return &AuthHandler{uc: uc, cfg: cfg}
}
