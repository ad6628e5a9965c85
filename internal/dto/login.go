package dto

type LoginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Device   *DeviceInfo `json:"device,omitempty"`
}

type VerifyEmailRequest struct {
	Code string `json:"code"`
}
