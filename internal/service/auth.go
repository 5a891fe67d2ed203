package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/config"
	"vidtube/internal/logging"
	"vidtube/internal/model"
	"vidtube/internal/repository"
)

// AuthService handles authentication-related business logic with refresh token rotation and reuse detection.
type AuthService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	userRepo         repository.UserRepository
	config           config.AuthConfig
}

func NewAuthService(refreshTokenRepo repository.RefreshTokenRepository, userRepo repository.UserRepository, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		refreshTokenRepo: refreshTokenRepo,
		userRepo:         userRepo,
		config:           cfg,
	}
}

// GenerateTokenPair issues a new access token and persists a refresh token.
// The hash of the refresh token is mirrored on the user document as the
// current session.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID bson.ObjectID, deviceInfo, ipAddress string) (*model.TokenPair, error) {
	pair, _, err := s.issue(ctx, userID, deviceInfo, ipAddress)
	return pair, err
}

func (s *AuthService) issue(ctx context.Context, userID bson.ObjectID, deviceInfo, ipAddress string) (*model.TokenPair, *model.RefreshToken, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshTokenRaw := uuid.New().String()
	refreshTokenHash := s.hashToken(refreshTokenRaw)

	refreshToken := &model.RefreshToken{
		UserID:    userID.Hex(),
		TokenHash: refreshTokenHash,
		ExpiresAt: time.Now().Add(time.Duration(s.config.RefreshTokenMaxAge) * time.Second),
	}

	if deviceInfo != "" {
		refreshToken.DeviceInfo = &deviceInfo
	}
	if ipAddress != "" {
		refreshToken.IPAddress = &ipAddress
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	if err := s.userRepo.SetRefreshToken(ctx, userID, &refreshTokenHash); err != nil {
		return nil, nil, fmt.Errorf("failed to record session: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, refreshToken, nil
}

// RefreshTokens validates the refresh token and rotates a new pair.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshTokenRaw, deviceInfo, ipAddress string) (*model.TokenPair, bson.ObjectID, error) {
	if refreshTokenRaw == "" {
		return nil, bson.NilObjectID, model.ErrRefreshTokenMissing
	}

	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, s.hashToken(refreshTokenRaw))
	if err != nil {
		if errors.Is(err, model.ErrRefreshTokenNotFound) {
			return nil, bson.NilObjectID, model.ErrRefreshTokenNotFound
		}
		return nil, bson.NilObjectID, err
	}

	userID, err := bson.ObjectIDFromHex(token.UserID)
	if err != nil {
		return nil, bson.NilObjectID, model.ErrRefreshTokenNotFound
	}

	if token.IsRevoked() {
		if err := s.revokeTokenFamily(ctx, userID); err != nil {
			logging.FromContext(ctx).Error().Err(err).Str("user_id", token.UserID).Msg("failed to revoke token family after reuse")
		} else {
			logging.FromContext(ctx).Warn().Str("user_id", token.UserID).Msg("refresh token reuse detected, sessions revoked")
		}
		return nil, bson.NilObjectID, model.ErrRefreshTokenReused
	}

	if token.IsExpired() {
		return nil, bson.NilObjectID, model.ErrRefreshTokenExpired
	}

	newTokenPair, newToken, err := s.issue(ctx, userID, deviceInfo, ipAddress)
	if err != nil {
		return nil, bson.NilObjectID, err
	}

	if err := s.refreshTokenRepo.Revoke(ctx, token.ID, &newToken.ID); err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("token_id", token.ID).Msg("failed to revoke rotated refresh token")
	}

	return newTokenPair, userID, nil
}

// Logout revokes the presented refresh token, if any, and clears the user's
// current session.
func (s *AuthService) Logout(ctx context.Context, userID bson.ObjectID, refreshTokenRaw string) error {
	if refreshTokenRaw != "" {
		err := s.RevokeRefreshToken(ctx, refreshTokenRaw)
		if err != nil && !errors.Is(err, model.ErrRefreshTokenNotFound) {
			return err
		}
	}
	return s.userRepo.SetRefreshToken(ctx, userID, nil)
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshTokenRaw string) error {
	tokenHash := s.hashToken(refreshTokenRaw)
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	return s.refreshTokenRepo.Revoke(ctx, token.ID, nil)
}

// RevokeAllUserTokens ends every session of the user.
func (s *AuthService) RevokeAllUserTokens(ctx context.Context, userID bson.ObjectID) error {
	if err := s.refreshTokenRepo.RevokeAllForUser(ctx, userID.Hex()); err != nil {
		return err
	}
	return s.userRepo.SetRefreshToken(ctx, userID, nil)
}

// PurgeExpired drops ledger rows that expired more than retention ago.
func (s *AuthService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx, retention)
}

func (s *AuthService) revokeTokenFamily(ctx context.Context, userID bson.ObjectID) error {
	if err := s.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke token family: %w", err)
	}
	return nil
}

func (s *AuthService) generateAccessToken(userID bson.ObjectID) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.Hex(),
		"exp":     time.Now().Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
