package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is everyone who ever logged in. The credential is kept hashed and is
// never checked: login always succeeds.
type User struct {
	gorm.Model
	PublicID       string    `json:"id" gorm:"uniqueIndex"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	Name           string    `json:"name"`
	CredentialHash string    `json:"-"`
	LastLoginAt    time.Time `json:"lastLoginAt"`

	Credential string `json:"-" gorm:"-"`
}

func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	if u.Credential != "" {
		u.CredentialHash, err = generateHashPassword(u.Credential)
		u.Credential = ""
	}

	return
}

func generateHashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	return string(hashedPasswordBytes), nil
}
