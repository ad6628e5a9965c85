package dto

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries optional profile mutations; nil fields are left
// untouched.
type UpdateUserRequest struct {
	Username      *string `json:"username,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	Icon          *string `json:"icon,omitempty"`
	StatusType    *int16  `json:"statusType,omitempty"`
	StatusMessage *string `json:"statusMessage,omitempty"`
}
