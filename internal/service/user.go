package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/model"
	"vidtube/internal/repository"
)

// UserService handles business logic for accounts and channels.
type UserService struct {
	repo  repository.UserRepository
	media MediaUploader
}

func NewUserService(repo repository.UserRepository, media MediaUploader) *UserService {
	return &UserService{
		repo:  repo,
		media: media,
	}
}

// Register creates an account. The avatar is required and the cover image
// optional; uploads happen only after the uniqueness check passes and are
// removed again when the insert fails.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest, avatar, cover *model.FileInput) (*model.User, error) {
	userName := model.NormalizeUserName(req.UserName)
	email := model.NormalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if userName == "" || email == "" || fullName == "" || strings.TrimSpace(req.Password) == "" {
		return nil, model.Invalid("All fields are required")
	}
	if avatar == nil {
		return nil, model.ErrAvatarRequired
	}

	exists, err := s.repo.ExistsByUserNameOrEmail(ctx, userName, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return nil, model.ErrUserExists
	}

	// Hash before uploading so a bcrypt failure leaves nothing behind.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatarResult, err := s.media.UploadImage(ctx, *avatar, model.ImageAvatar)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UserName:  userName,
		Email:     email,
		FullName:  fullName,
		Password:  string(hashedPassword),
		Avatar:    avatarResult.URL,
		AvatarKey: avatarResult.Key,
	}

	if cover != nil {
		coverResult, err := s.media.UploadImage(ctx, *cover, model.ImageCover)
		if err != nil {
			deleteQuietly(ctx, s.media, avatarResult.Key)
			return nil, err
		}
		user.CoverImage = coverResult.URL
		user.CoverImageKey = coverResult.Key
	}

	if err := s.repo.Create(ctx, user); err != nil {
		deleteQuietly(ctx, s.media, user.AvatarKey, user.CoverImageKey)
		return nil, err
	}

	return user, nil
}

// Login authenticates by user name or email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	userName := model.NormalizeUserName(req.UserName)
	email := model.NormalizeEmail(req.Email)
	if userName == "" && email == "" {
		return nil, model.Invalid("Username or email is required")
	}
	if req.Password == "" {
		return nil, model.Invalid("Password is required")
	}

	user, err := s.repo.GetByLogin(ctx, userName, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Don't reveal whether the account exists
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) ChangePassword(ctx context.Context, userID bson.ObjectID, req *model.ChangePasswordRequest) error {
	if req.OldPassword == "" || strings.TrimSpace(req.NewPassword) == "" {
		return model.Invalid("Old and new password are required")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return model.ErrInvalidOldPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hashed))
}

func (s *UserService) UpdateAccount(ctx context.Context, userID bson.ObjectID, req *model.UpdateAccountRequest) (*model.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := model.NormalizeEmail(req.Email)
	if fullName == "" || email == "" {
		return nil, model.Invalid("All fields are required")
	}
	return s.repo.UpdateAccount(ctx, userID, fullName, email)
}

// UpdateAvatar replaces the avatar and then deletes the previous object.
func (s *UserService) UpdateAvatar(ctx context.Context, userID bson.ObjectID, file *model.FileInput) (*model.User, error) {
	if file == nil {
		return nil, model.ErrAvatarRequired
	}
	return s.replaceImage(ctx, userID, *file, model.ImageAvatar,
		func(u *model.User) string { return u.AvatarKey },
		s.repo.UpdateAvatar)
}

// UpdateCoverImage replaces the cover image and then deletes the previous object.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID bson.ObjectID, file *model.FileInput) (*model.User, error) {
	if file == nil {
		return nil, model.Invalid("Cover image file is required")
	}
	return s.replaceImage(ctx, userID, *file, model.ImageCover,
		func(u *model.User) string { return u.CoverImageKey },
		s.repo.UpdateCoverImage)
}

func (s *UserService) replaceImage(
	ctx context.Context,
	userID bson.ObjectID,
	file model.FileInput,
	kind model.ImageKind,
	currentKey func(*model.User) string,
	save func(context.Context, bson.ObjectID, model.UploadResult) (*model.User, error),
) (*model.User, error) {
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.media.UploadImage(ctx, file, kind)
	if err != nil {
		return nil, err
	}

	user, err := save(ctx, userID, *result)
	if err != nil {
		deleteQuietly(ctx, s.media, result.Key)
		return nil, err
	}

	if old := currentKey(current); old != result.Key {
		deleteQuietly(ctx, s.media, old)
	}
	return user, nil
}

// ChannelProfile returns a channel by user name with subscription counters
// relative to the viewer.
func (s *UserService) ChannelProfile(ctx context.Context, userName string, viewerID bson.ObjectID) (*model.ChannelProfile, error) {
	userName = model.NormalizeUserName(userName)
	if userName == "" {
		return nil, model.ErrUserNameRequired
	}
	return s.repo.ChannelProfile(ctx, userName, viewerID)
}

func (s *UserService) WatchHistory(ctx context.Context, userID bson.ObjectID) ([]model.VideoCard, error) {
	return s.repo.WatchHistory(ctx, userID)
}
