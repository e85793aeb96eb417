package models

type User struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string `gorm:"type:varchar(255)" json:"full_name"`
	PasswordHash string `gorm:"type:varchar(255)" json:"-"`

	// Relations
	Memberships []Membership `gorm:"foreignKey:UserID" json:"-"`
}
