package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nanosoft-labs/auth-backend/internal/apperr"
	"github.com/nanosoft-labs/auth-backend/internal/models"
	"github.com/nanosoft-labs/auth-backend/internal/notify"
	"github.com/nanosoft-labs/auth-backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// IdentityVerifier verifies a federated identity token and returns its
// claims. Satisfied by GoogleJWKSClient.
type IdentityVerifier interface {
	VerifyIDToken(idToken, clientID string) (*GoogleIDClaims, error)
}

// RevocationMarker is the optional lookaside the engine writes tombstones
// through on logout.
type RevocationMarker interface {
	MarkRevoked(ctx context.Context, accessToken string) error
	IsRevoked(ctx context.Context, accessToken string) (bool, error)
}

// SessionService is the token lifecycle state machine: it authenticates
// users, issues and rotates access/refresh pairs, revokes them on logout and
// drives both password recovery flows. It holds no session state between
// calls; all session truth lives in the store.
type SessionService struct {
	store       store.Store
	codec       *TokenCodec
	verifier    IdentityVerifier
	notifier    notify.RecoveryNotifier
	revocations RevocationMarker // may be nil
	clientID    string
}

func NewSessionService(
	st store.Store,
	codec *TokenCodec,
	verifier IdentityVerifier,
	notifier notify.RecoveryNotifier,
	revocations RevocationMarker,
	googleClientID string,
) *SessionService {
	return &SessionService{
		store:       st,
		codec:       codec,
		verifier:    verifier,
		notifier:    notifier,
		revocations: revocations,
		clientID:    googleClientID,
	}
}

// Authenticate exchanges email/password credentials for a fresh token pair.
// Unknown-user and wrong-password failures carry distinct codes but the same
// user-facing message, so account existence is not leaked.
func (s *SessionService) Authenticate(ctx context.Context, email, password, deviceToken, deviceType string) (*TokenPair, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ByCode(apperr.CodeUserNotFound)
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.ByCode(apperr.CodePasswordMismatch)
	}

	return s.issuePair(ctx, user.ID, deviceToken, deviceType)
}

// Refresh redeems a refresh token for a new pair. The token is single-use:
// the old record is deleted and the new one inserted in one transaction, so
// of two concurrent redemptions exactly one succeeds.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	old, err := s.store.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ByCode(apperr.CodeRefreshNotFound)
		}
		return nil, err
	}

	pair, err := s.codec.MintPair(old.UserID)
	if err != nil {
		return nil, apperr.ByCode(apperr.CodeTokenStoreFailed)
	}

	next := &models.RefreshToken{
		UserID:      old.UserID,
		AccessToken: pair.AccessToken,
		Token:       pair.RefreshToken,
	}
	if err := s.store.RotateRefreshToken(ctx, old.ID, next); err != nil {
		if isConflict(err) || isNotFound(err) {
			// Lost the race against a concurrent refresh.
			return nil, apperr.ByCode(apperr.CodeRefreshNotFound)
		}
		slog.Error("refresh token rotation failed", "error", err)
		return nil, apperr.ByCode(apperr.CodeTokenStoreFailed)
	}

	return pair, nil
}

// Revoke logs the session out: it tombstones the access token extracted from
// the credential header and deletes the matching refresh-token record. An
// already-revoked token and a genuine store fault surface the same code; the
// caller cannot probe revocation status through this endpoint.
func (s *SessionService) Revoke(ctx context.Context, authHeader string) error {
	accessToken, err := BearerFromHeader(authHeader)
	if err != nil {
		return apperr.ByCode(apperr.CodeRevokeFailed)
	}

	if err := s.store.RevokeTokenPair(ctx, accessToken); err != nil {
		return apperr.ByCode(apperr.CodeRevokeFailed)
	}

	if s.revocations != nil {
		if err := s.revocations.MarkRevoked(ctx, accessToken); err != nil {
			slog.Warn("revocation cache write failed", "error", err)
		}
	}
	return nil
}

// ChangePassword rotates a known password. The user is loaded by the
// authenticated session's id; the payload email is a confirmation field that
// must match the loaded record, which stops an authenticated caller from
// steering the change at another account.
func (s *SessionService) ChangePassword(ctx context.Context, userID uuid.UUID, email, oldPassword, newPassword string) error {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return apperr.ByCode(apperr.CodeUserNotFound)
		}
		return err
	}

	if user.Email != email {
		return apperr.ByCode(apperr.CodeEmailMismatch)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperr.ByCode(apperr.CodePasswordMismatch)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(newPassword)) == nil {
		return apperr.ByCode(apperr.CodeSamePassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.ByCode(apperr.CodePasswordSaveFailed)
	}
	if err := s.store.UpdatePassword(ctx, userID, string(hash)); err != nil {
		slog.Error("password update failed", "error", err, "user_id", userID)
		return apperr.ByCode(apperr.CodePasswordSaveFailed)
	}
	return nil
}

// RequestPasswordRecovery issues a one-time recovery token for the email,
// hashes it and upserts it over any prior outstanding request. The plaintext
// token goes to the delivery channel only; it never appears in a response.
func (s *SessionService) RequestPasswordRecovery(ctx context.Context, email string) error {
	if _, err := s.store.FindUserByEmail(ctx, email); err != nil {
		if isNotFound(err) {
			return apperr.ByCode(apperr.CodeUserNotFound)
		}
		return err
	}

	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return apperr.ByCode(apperr.CodeRecoveryStoreFailed)
	}

	rec := &models.PasswordRecovery{Email: email, TokenHash: string(hash)}
	if err := s.store.UpsertPasswordRecovery(ctx, rec); err != nil {
		slog.Error("recovery request upsert failed", "error", err)
		return apperr.ByCode(apperr.CodeRecoveryStoreFailed)
	}

	if err := s.notifier.RecoveryRequested(ctx, email, token); err != nil {
		slog.Error("recovery token delivery failed", "error", err)
	}
	return nil
}

// ResetPassword consumes an outstanding recovery request: the new password
// hash lands and the request is deleted in one transaction, making every
// issued token single-use.
func (s *SessionService) ResetPassword(ctx context.Context, email, recoveryToken, newPassword string) error {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return apperr.ByCode(apperr.CodeUserNotFound)
		}
		return err
	}

	rec, err := s.store.FindPasswordRecovery(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return apperr.ByCode(apperr.CodeRecoveryNotFound)
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.TokenHash), []byte(recoveryToken)) != nil {
		return apperr.ByCode(apperr.CodeRecoveryMismatch)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.ByCode(apperr.CodePasswordSaveFailed)
	}
	if err := s.store.CompleteRecovery(ctx, user.ID, email, string(hash)); err != nil {
		if isConflict(err) {
			// A concurrent reset consumed the request first.
			return apperr.ByCode(apperr.CodeRecoveryNotFound)
		}
		slog.Error("recovery reset failed", "error", err, "user_id", user.ID)
		return apperr.ByCode(apperr.CodePasswordSaveFailed)
	}
	return nil
}

// AuthenticateWithGoogle exchanges a verified Google ID token for a pair. An
// unknown (but verified) identity gets a distinguished error telling the
// client to register, unlike ordinary credential failures.
func (s *SessionService) AuthenticateWithGoogle(ctx context.Context, idToken string) (*TokenPair, error) {
	claims, err := s.verifier.VerifyIDToken(idToken, s.clientID)
	if err != nil {
		slog.Error("google id token verification failed", "error", err)
		return nil, apperr.ByCode(apperr.CodeIdentityRejected)
	}

	user, err := s.store.FindUserByEmail(ctx, claims.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ByCode(apperr.CodeRegistrationNeeded)
		}
		return nil, err
	}

	return s.issuePair(ctx, user.ID, "", "")
}

// IsAccessTokenRevoked answers the gate's revocation check, consulting the
// cache first when one is configured.
func (s *SessionService) IsAccessTokenRevoked(ctx context.Context, accessToken string) (bool, error) {
	if s.revocations != nil {
		if revoked, err := s.revocations.IsRevoked(ctx, accessToken); err == nil && revoked {
			return true, nil
		}
	}
	return s.store.IsTokenRevoked(ctx, accessToken)
}

func (s *SessionService) issuePair(ctx context.Context, userID uuid.UUID, deviceToken, deviceType string) (*TokenPair, error) {
	pair, err := s.codec.MintPair(userID)
	if err != nil {
		return nil, apperr.ByCode(apperr.CodeTokenStoreFailed)
	}

	rt := &models.RefreshToken{
		UserID:      userID,
		AccessToken: pair.AccessToken,
		Token:       pair.RefreshToken,
	}
	var device *models.DeviceToken
	if deviceToken != "" {
		device = &models.DeviceToken{
			UserID:   userID,
			Token:    deviceToken,
			Type:     deviceType,
			LoggedIn: true,
		}
	}

	if err := s.store.InsertTokenPair(ctx, rt, device); err != nil {
		slog.Error("token pair insert failed", "error", err, "user_id", userID)
		return nil, apperr.ByCode(apperr.CodeTokenStoreFailed)
	}
	return pair, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, store.ErrConflict)
}
