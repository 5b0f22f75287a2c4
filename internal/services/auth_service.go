package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/models"
)

type AuthService struct {
	DB       *gorm.DB
	Secret   []byte
	TokenTTL time.Duration
	HashCost int
	Now      func() time.Time
}

func NewAuthService(db *gorm.DB, secret []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		DB:       db,
		Secret:   secret,
		TokenTTL: tokenTTL,
		HashCost: bcrypt.DefaultCost,
		Now:      time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Session is a freshly issued token and the account it belongs to.
type Session struct {
	Token string
	User  *models.User
}

// ProfilePatch holds optional profile changes. Nil or empty fields are left
// unchanged.
type ProfilePatch struct {
	Age       *string
	Gender    *string
	Location  *string
	Interests *[]string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, apperr.Validation("All fields are required")
	}
	role := models.Role(in.Role)
	if !role.Valid() {
		return nil, apperr.Validation("Role must be either user or admin")
	}

	db := s.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if count > 0 {
		return nil, apperr.Conflict("User already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.HashCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := models.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  string(hashedPassword),
		Role:      role,
		Interests: []string{},
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal(err)
	}

	return s.issue(&user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User does not exist")
		}
		return nil, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Auth("Invalid password")
	}

	return s.issue(&user)
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := helpers.GenerateSessionToken(user.ID, s.Secret, s.TokenTTL, s.Now())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{Token: token, User: user}, nil
}

// Authenticate resolves a session token to the current user record.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Auth("Access denied. No token provided.")
	}
	userID, err := helpers.ParseSessionToken(token, s.Secret)
	if err != nil {
		return nil, apperr.Auth("Invalid token.")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Auth("Invalid token. User not found.")
		}
		return nil, apperr.Internal(err)
	}
	return &user, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*models.User, error) {
	columns := make([]string, 0, 4)
	var updates models.User

	if v := deref(patch.Age); v != "" {
		if !models.ValidAgeBracket(v) {
			return nil, apperr.Validation("Invalid age range")
		}
		updates.Age = v
		columns = append(columns, "age")
	}
	if v := deref(patch.Gender); v != "" {
		if !models.ValidGender(v) {
			return nil, apperr.Validation("Invalid gender")
		}
		updates.Gender = v
		columns = append(columns, "gender")
	}
	if v := deref(patch.Location); v != "" {
		if !models.ValidLocation(v) {
			return nil, apperr.Validation("Invalid location")
		}
		updates.Location = v
		columns = append(columns, "location")
	}
	if patch.Interests != nil && len(*patch.Interests) > 0 {
		interests := make([]string, 0, len(*patch.Interests))
		for _, interest := range *patch.Interests {
			if !models.ValidInterest(interest) {
				return nil, apperr.Validation("Invalid interest: " + interest)
			}
			interests = append(interests, interest)
		}
		updates.Interests = interests
		columns = append(columns, "interests")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return user, nil
	}

	if err := s.DB.WithContext(ctx).Model(user).Select(columns).Updates(&updates).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return s.GetProfile(ctx, userID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
