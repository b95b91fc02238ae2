package dto

type LoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=15"`
	DeviceType  string `json:"device_type,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
}

type GoogleExchangeRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required,min=8,max=15"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=15"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetForgotPasswordRequest struct {
	Email          string `json:"email" validate:"required,email"`
	ForgotPwdToken string `json:"forgot_pwd_token" validate:"required,len=36"`
	NewPassword    string `json:"new_password" validate:"required,min=8,max=15"`
}

// MessageResponse is the generic confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorBody and ErrorResponse match the wire shape
// {"error":{"code":"NN-NN","message":"...","action":"..."}}.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
