package handler

type VerifyStartRequest struct {
	Phone string `json:"phone"`
	Mode  string `json:"mode"`
}

type VerifyCheckRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
	Mode  string `json:"mode"`
}

type CompleteRequest struct {
	Token      string `json:"token"`
	PIN        string `json:"pin"`
	ConfirmPIN string `json:"confirmPin"`
}

type LoginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type EmailVerifyStartRequest struct {
	Email string `json:"email"`
}

type EmailVerifyCheckRequest struct {
	Code string `json:"code"`
}
