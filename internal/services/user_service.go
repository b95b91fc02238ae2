package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nanosoft-labs/auth-backend/internal/apperr"
	"github.com/nanosoft-labs/auth-backend/internal/dto"
	"github.com/nanosoft-labs/auth-backend/internal/models"
	"github.com/nanosoft-labs/auth-backend/internal/store"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// UserService provisions user records. Passwords are hashed before they
// reach the store; profile fields arrive as flat request fields and are
// composed into their stored shapes here.
type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// Create provisions a user from the simple registration form.
func (s *UserService) Create(ctx context.Context, req *dto.CreateUserRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.ByCode(apperr.CodeUserCreateFailed)
	}

	user := &models.User{
		Email:    req.Email,
		Password: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		slog.Error("user creation failed", "error", err)
		return apperr.ByCode(apperr.CodeUserCreateFailed)
	}
	return nil
}

// Register provisions a user from the extended registration form, deriving
// age from the date of birth, a GeoJSON-style point from lat/lng and a
// composed phone object from the phone parts.
func (s *UserService) Register(ctx context.Context, req *dto.RegisterUserRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.ByCode(apperr.CodeUserCreateFailed)
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return apperr.ByCode(apperr.CodeUserCreateFailed)
	}

	user := &models.User{
		Email:         req.Email,
		Password:      string(hash),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Gender:        req.Gender,
		DateOfBirth:   &dob,
		Age:           calculateAge(dob, time.Now()),
		Area:          req.Area,
		CityID:        req.CityID,
		NationalityID: req.NationalityID,
		Location:      locationPoint(req.Lat, req.Lng),
		Phone:         phoneObject(req.PhoneSlug, req.PhoneCode, req.PhoneNumber),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		slog.Error("user registration failed", "error", err)
		return apperr.ByCode(apperr.CodeUserCreateFailed)
	}
	return nil
}

// calculateAge returns full years between dob and now, never negative.
func calculateAge(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() ||
		(now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

func locationPoint(lat, lng float64) datatypes.JSON {
	b, _ := json.Marshal(map[string]interface{}{
		"type":        "point",
		"coordinates": []float64{lng, lat},
	})
	return datatypes.JSON(b)
}

func phoneObject(slug, code, number string) datatypes.JSON {
	b, _ := json.Marshal(map[string]string{
		"slug":   slug,
		"code":   code,
		"number": number,
	})
	return datatypes.JSON(b)
}
