package user

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a customer account. Guests created during guest or walk-in
// checkouts are full rows flagged with IsGuest so a later registration can
// claim the history.
type User struct {
	ID        uint
	Name      string
	Email     string
	Phone     *string
	Role      Role
	IsGuest   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GuestInfo is the minimal identity collected for a guest checkout.
type GuestInfo struct {
	Name  string
	Email string
	Phone string
}
