package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	AgeBrackets = []string{"18-24", "25-34", "35-44", "45+"}
	Genders     = []string{"Male", "Female"}
	Locations   = []string{"Cairo", "Alexandria", "Giza", "Luxor", "Aswan", "Sharm El Sheikh", "Hurghada", "International"}
	Interests   = []string{"Live Music", "Innovation", "EDM Music", "Food Festivals", "Technology", "Sports", "Art", "Business"}
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      Role      `gorm:"type:varchar(16);not null;default:'user';index" json:"role"`
	Age       string    `gorm:"type:varchar(16)" json:"age"`
	Gender    string    `gorm:"type:varchar(16)" json:"gender"`
	Location  string    `gorm:"type:varchar(32)" json:"location"`
	Interests []string  `gorm:"type:text;serializer:json" json:"interests"`

	// Account verification and password reset codes. Nothing issues them yet.
	VerifyOTP       string `gorm:"column:verify_otp" json:"-"`
	VerifyOTPExpiry int64  `gorm:"column:verify_otp_expiry" json:"-"`
	IsVerified      bool   `gorm:"not null;default:false" json:"-"`
	ResetOTP        string `gorm:"column:reset_otp" json:"-"`
	ResetOTPExpiry  int64  `gorm:"column:reset_otp_expiry" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}

func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin
}

// Public is the identity projection returned by register and login.
func (user *User) Public() PublicUser {
	return PublicUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}

func (user *User) Profile() Profile {
	interests := user.Interests
	if interests == nil {
		interests = []string{}
	}
	return Profile{
		PublicUser: user.Public(),
		Age:        user.Age,
		Gender:     user.Gender,
		Location:   user.Location,
		Interests:  interests,
	}
}

type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

type Profile struct {
	PublicUser
	Age       string   `json:"age"`
	Gender    string   `json:"gender"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
}

// UserSummary is the read-only view of a user joined into events and tickets.
type UserSummary struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (UserSummary) TableName() string {
	return "users"
}

func ValidAgeBracket(v string) bool { return slices.Contains(AgeBrackets, v) }
func ValidGender(v string) bool     { return slices.Contains(Genders, v) }
func ValidLocation(v string) bool   { return slices.Contains(Locations, v) }
func ValidInterest(v string) bool   { return slices.Contains(Interests, v) }
