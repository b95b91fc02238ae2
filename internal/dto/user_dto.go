package dto

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=15"`
	DeviceType  string `json:"device_type,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
}

type RegisterUserRequest struct {
	FirstName     string  `json:"first_name" validate:"required,min=3,max=30"`
	LastName      string  `json:"last_name" validate:"required,min=3,max=30"`
	DateOfBirth   string  `json:"dob" validate:"required,datetime=2006-01-02"`
	Email         string  `json:"email" validate:"required,email,min=3"`
	Password      string  `json:"password" validate:"required,min=8,max=15"`
	Gender        string  `json:"gender" validate:"required,oneof=male female"`
	Area          string  `json:"area" validate:"required,min=3,max=30"`
	Lat           float64 `json:"lat" validate:"required"`
	Lng           float64 `json:"lng" validate:"required"`
	PhoneSlug     string  `json:"phone_slug" validate:"required"`
	PhoneCode     string  `json:"phone_code" validate:"required"`
	PhoneNumber   string  `json:"phone_number" validate:"required"`
	CityID        string  `json:"city_id" validate:"required"`
	NationalityID string  `json:"nationality_id" validate:"required"`
	DeviceType    string  `json:"device_type,omitempty"`
	DeviceToken   string  `json:"device_token,omitempty"`
}

type CreateUserResponse struct {
	Email string `json:"email"`
}
