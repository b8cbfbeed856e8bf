package domain

// Roles a user can hold
const (
	RoleUser  = "user"  // Regular account holder
	RoleAdmin = "admin" // May list every user
)

// User Model
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`                                   // Primary key
	FirstName  string     `gorm:"not null" json:"first_name"`                             // Given name
	LastName   string     `gorm:"not null" json:"last_name"`                              // Family name
	Username   string     `gorm:"size:30;uniqueIndex;not null" json:"username"`           // Unique username
	Email      string     `gorm:"size:255;uniqueIndex;not null" json:"email"`             // Unique email
	Password   string     `gorm:"not null" json:"-"`                                      // Hashed password
	Role       string     `gorm:"size:16;default:user" json:"role"`                       // Role: user or admin
	Accounts   []Account  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Owned accounts
	Categories []Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Owned categories
	CreatedAt  int64      `gorm:"autoCreateTime:milli" json:"created_at"`                 // Timestamp of creation in milliseconds
}

// IsAdmin reports whether the user may see other users
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
