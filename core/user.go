package core

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User is the directory entry the reports join against. Credentials live
// with the identity provider, not here.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Email     *string   `gorm:"size:255" json:"email,omitempty"`
	Role      string    `gorm:"size:16;not null;default:member" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func FindUserByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	result := db.First(&user, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil // not found
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// UpsertUsers inserts users or updates them on id conflict.
func UpsertUsers(db *gorm.DB, users []User) error {
	if len(users) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}}, // conflict key
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "role", "updated_at"}),
	}).Create(&users).Error
}
