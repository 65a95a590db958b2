package domain

// User Model
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`                                   // Primary key
	Login        *string `gorm:"size:50;uniqueIndex" json:"login,omitempty"`             // Unique login, nil for admin-created accounts
	PasswordHash *string `gorm:"size:255" json:"-"`                                      // Salted password hash
	Salt         *string `gorm:"size:64" json:"-"`                                       // Base64 salt
	FirstName    string  `gorm:"size:50;not null" json:"firstName"`                      // Required first name
	LastName     string  `gorm:"size:50;not null" json:"lastName"`                       // Required last name
	Email        string  `gorm:"size:100;not null;uniqueIndex" json:"email"`             // Unique email
	Address      string  `gorm:"size:200" json:"address,omitempty"`                      // Optional postal address
	IsAdmin      bool    `gorm:"not null;default:false" json:"isAdmin"`                  // Administrator flag
	Orders       []Order `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Orders placed by this user
}

// FullName is what select lists show for a user.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CanAuthenticate reports whether the account has password material.
func (u User) CanAuthenticate() bool {
	return u.PasswordHash != nil && u.Salt != nil && *u.PasswordHash != ""
}
