package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaxWatchHistory caps how many videos a user's watch history keeps.
const MaxWatchHistory = 100

// User is a registered account and, at the same time, a channel.
type User struct {
	ID            bson.ObjectID   `bson:"_id" json:"_id"`
	UserName      string          `bson:"userName" json:"userName"`
	Email         string          `bson:"email" json:"email"`
	FullName      string          `bson:"fullName" json:"fullName"`
	Avatar        string          `bson:"avatar" json:"avatar"`
	AvatarKey     string          `bson:"avatarKey,omitempty" json:"-"`
	CoverImage    string          `bson:"coverImage,omitempty" json:"coverImage"`
	CoverImageKey string          `bson:"coverImageKey,omitempty" json:"-"`
	Password      string          `bson:"password" json:"-"` // bcrypt hash, never serialized
	RefreshToken  *string         `bson:"refreshToken" json:"-"`
	WatchHistory  []bson.ObjectID `bson:"watchHistory" json:"watchHistory"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeUserName trims and lower-cases a user name the way it is stored.
func NormalizeUserName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RegisterRequest carries the text fields of the multipart sign-up form.
type RegisterRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// LoginRequest accepts either a user name or an email.
type LoginRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// ChannelProfile is the public view of a channel with subscription counters.
type ChannelProfile struct {
	ID                        bson.ObjectID `bson:"_id" json:"_id"`
	UserName                  string        `bson:"userName" json:"userName"`
	FullName                  string        `bson:"fullName" json:"fullName"`
	Email                     string        `bson:"email" json:"email"`
	Avatar                    string        `bson:"avatar" json:"avatar"`
	CoverImage                string        `bson:"coverImage,omitempty" json:"coverImage"`
	SubscribersCount          int64         `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int64         `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool          `bson:"isSubscribed" json:"isSubscribed"`
	CreatedAt                 time.Time     `bson:"createdAt" json:"createdAt"`
}

// OwnerSummary is the allow-listed projection of a user embedded in other views.
type OwnerSummary struct {
	ID       bson.ObjectID `bson:"_id" json:"_id"`
	UserName string        `bson:"userName" json:"userName"`
	FullName string        `bson:"fullName" json:"fullName"`
	Avatar   string        `bson:"avatar" json:"avatar"`
}

var (
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrChannelNotFound    = &Error{Kind: KindNotFound, Message: "Channel does not exist"}
	ErrUserExists         = &Error{Kind: KindConflict, Message: "User with email or username already exists"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Message: "Email is already in use"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "Invalid user credentials"}
	ErrInvalidOldPassword = &Error{Kind: KindInvalidArgument, Message: "Invalid old password"}
	ErrAvatarRequired     = &Error{Kind: KindInvalidArgument, Message: "Avatar file is required"}
	ErrUserNameRequired   = &Error{Kind: KindInvalidArgument, Message: "Username is missing"}
)
