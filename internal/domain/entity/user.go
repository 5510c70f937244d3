package entity

import "regexp"

// User account status
const (
	UserStatusPending = "pending"
	UserStatusActive  = "active"
	UserStatusBanned  = "banned"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// UserAccount is one row of the users table. PasswordHash is a bcrypt hash;
// the submitted password never leaves the auth service in clear.
type UserAccount struct {
	RecordID     string
	Username     string
	PasswordHash string
	Status       string
	Role         string
	Preferences  string
}

// IsActive reports whether the account may log in.
func (u *UserAccount) IsActive() bool {
	return u.Status == UserStatusActive
}

// ValidateUsername applies the registration rules for usernames.
func ValidateUsername(username string) error {
	if username == "" {
		return NewValidationError("username", "用户名不能为空")
	}
	if len(username) < 3 {
		return NewValidationError("username", "用户名长度至少为3个字符")
	}
	if len(username) > 20 {
		return NewValidationError("username", "用户名长度不能超过20个字符")
	}
	if !usernamePattern.MatchString(username) {
		return NewValidationError("username", "用户名只能包含字母、数字和下划线")
	}
	return nil
}

// ValidatePassword applies the registration rules for passwords.
func ValidatePassword(password string) error {
	if password == "" {
		return NewValidationError("password", "密码不能为空")
	}
	if len(password) < 4 {
		return NewValidationError("password", "密码长度至少为4个字符")
	}
	if len(password) > 50 {
		return NewValidationError("password", "密码长度不能超过50个字符")
	}
	return nil
}
