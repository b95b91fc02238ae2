// Package store is the credential store adapter: typed accessors over user,
// refresh-token, revoked-token and password-recovery records, plus the
// compound operations that change more than one record. Every compound
// operation runs in a repeatable-read transaction and is all-or-nothing;
// callers never observe a state where only one of its writes took effect.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nanosoft-labs/auth-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound reports that a looked-up record does not exist. For refresh
// tokens and recovery requests it also covers "already consumed", since both
// are deleted on use.
var ErrNotFound = errors.New("store: record not found")

// ErrConflict reports a duplicate-key conflict, e.g. revoking an
// already-revoked token or a concurrent rotation losing the race.
var ErrConflict = errors.New("store: write conflict")

type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	IsTokenRevoked(ctx context.Context, accessToken string) (bool, error)

	FindPasswordRecovery(ctx context.Context, email string) (*models.PasswordRecovery, error)
	UpsertPasswordRecovery(ctx context.Context, rec *models.PasswordRecovery) error

	// InsertTokenPair records a freshly minted session grant and, when device
	// is non-nil, upserts the device registration in the same transaction.
	InsertTokenPair(ctx context.Context, rt *models.RefreshToken, device *models.DeviceToken) error

	// RotateRefreshToken atomically replaces the record oldID with next.
	// Returns ErrConflict when the old record is already gone (a concurrent
	// rotation won).
	RotateRefreshToken(ctx context.Context, oldID uuid.UUID, next *models.RefreshToken) error

	// RevokeTokenPair tombstones the access token and removes the session
	// grant carrying it. Returns ErrConflict when the tombstone already
	// exists.
	RevokeTokenPair(ctx context.Context, accessToken string) error

	// UpdatePassword persists a new password hash and invalidates every
	// outstanding session grant of the user.
	UpdatePassword(ctx context.Context, userID uuid.UUID, newHash string) error

	// CompleteRecovery persists a new password hash, consumes the recovery
	// request for email and invalidates the user's session grants. Returns
	// ErrConflict when the request was consumed concurrently.
	CompleteRecovery(ctx context.Context, userID uuid.UUID, email string, newHash string) error
}

type gormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Compound operations need snapshot semantics so that two racing writers
// cannot both succeed.
var txOpts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}

func (s *gormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *gormStore) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, translate(err)
	}
	return &rt, nil
}

func (s *gormStore) IsTokenRevoked(ctx context.Context, accessToken string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("token = ?", accessToken).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) FindPasswordRecovery(ctx context.Context, email string) (*models.PasswordRecovery, error) {
	var rec models.PasswordRecovery
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (s *gormStore) UpsertPasswordRecovery(ctx context.Context, rec *models.PasswordRecovery) error {
	return translate(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "updated_at"}),
	}).Create(rec).Error)
}

func (s *gormStore) InsertTokenPair(ctx context.Context, rt *models.RefreshToken, device *models.DeviceToken) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rt).Error; err != nil {
			return err
		}
		if device == nil {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "logged_in", "updated_at"}),
		}).Create(device).Error
	}, txOpts))
}

func (s *gormStore) RotateRefreshToken(ctx context.Context, oldID uuid.UUID, next *models.RefreshToken) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.RefreshToken{}, "id = ?", oldID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent refresh already consumed this token.
			return ErrConflict
		}
		return tx.Create(next).Error
	}, txOpts))
}

func (s *gormStore) RevokeTokenPair(ctx context.Context, accessToken string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The tombstone's primary key rejects a second revocation of the
		// same token string.
		if err := tx.Create(&models.RevokedToken{Token: accessToken}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.RefreshToken{}, "access_token = ?", accessToken).Error
	}, txOpts))
}

func (s *gormStore) UpdatePassword(ctx context.Context, userID uuid.UUID, newHash string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("password", newHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&models.RefreshToken{}, "user_id = ?", userID).Error
	}, txOpts))
}

func (s *gormStore) CompleteRecovery(ctx context.Context, userID uuid.UUID, email string, newHash string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("password", newHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		res = tx.Delete(&models.PasswordRecovery{}, "email = ?", email)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The request was consumed by a concurrent reset.
			return ErrConflict
		}
		return tx.Delete(&models.RefreshToken{}, "user_id = ?", userID).Error
	}, txOpts))
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, ErrConflict),
		isSerializationFailure(err):
		return ErrConflict
	default:
		return err
	}
}

// isSerializationFailure matches Postgres aborting a transaction because a
// concurrent writer touched the same rows (SQLSTATE 40001) or a deadlock was
// broken (40P01). Under repeatable read the losing side of a race fails this
// way rather than observing zero affected rows, and callers must treat it as
// a lost race, not a store fault.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
