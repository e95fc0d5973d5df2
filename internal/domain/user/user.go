package user

import "fmt"

// User is the single record the tool manages. Username and Email are each
// unique across the table; Password is stored exactly as given.
type User struct {
	ID       int64
	Username string
	Email    string
	Password string
}

func New(username, email, password string) User {
	return User{Username: username, Email: email, Password: password}
}

// The password is left out.
func (u User) String() string {
	return fmt.Sprintf("id=%d username=%q email=%q", u.ID, u.Username, u.Email)
}
