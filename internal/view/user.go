package view

import (
	"time"

	"grievancedesk/internal/model"
)

// RegisteredUser is echoed back after registration.
type RegisteredUser struct {
	Fullname string     `json:"fullname"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

// Admin is an admin row in the management listing.
type Admin struct {
	ID         string  `json:"_id"`
	Fullname   string  `json:"fullname"`
	Email      string  `json:"email"`
	Department *string `json:"department"`
}

// Citizen is a citizen row in the management listing.
type Citizen struct {
	ID        string    `json:"_id"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewRegisteredUser(u *model.User) RegisteredUser {
	return RegisteredUser{Fullname: u.Fullname, Email: u.Email, Role: u.Role}
}

func NewAdmin(u *model.User) Admin {
	return Admin{ID: u.ID, Fullname: u.Fullname, Email: u.Email, Department: u.DepartmentID}
}

func NewCitizen(u *model.User) Citizen {
	return Citizen{ID: u.ID, Fullname: u.Fullname, Email: u.Email, CreatedAt: u.CreatedAt}
}

func NewAdmins(users []model.User) []Admin {
	out := make([]Admin, 0, len(users))
	for i := range users {
		out = append(out, NewAdmin(&users[i]))
	}
	return out
}

func NewCitizens(users []model.User) []Citizen {
	out := make([]Citizen, 0, len(users))
	for i := range users {
		out = append(out, NewCitizen(&users[i]))
	}
	return out
}
