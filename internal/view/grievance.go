// Package view shapes entities into the JSON the client expects.
package view

import (
	"path"
	"strings"
	"time"

	"grievancedesk/internal/model"
)

// Photo is a rendered attachment.
type Photo struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// DepartmentRef is a department as embedded in a grievance.
// ID is empty for the {"name":"N/A"} placeholder.
type DepartmentRef struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name"`
}

// UserRef is the submitter collapsed to id and email.
type UserRef struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// Grievance is the formatted grievance returned by every grievance endpoint.
type Grievance struct {
	ID          string                `json:"_id"`
	TrackingID  string                `json:"trackingId"`
	Description string                `json:"description"`
	Address     string                `json:"address"`
	Status      model.GrievanceStatus `json:"status"`
	Photos      []Photo               `json:"photos"`
	CreatedAt   time.Time             `json:"createdAt"`
	Category    string                `json:"category"`
	Department  DepartmentRef         `json:"department"`
	SubmittedBy *UserRef              `json:"submittedBy"`
	Feedback    string                `json:"feedback"`
}

// NotApplicable fills absent category and department names.
const NotApplicable = "N/A"

// Lookup resolves referenced entities by id. Missing keys mean the
// referenced record no longer exists.
type Lookup struct {
	Departments map[string]model.Department
	Users       map[string]model.User
}

// BaseURL joins scheme and host the way the request reached us.
func BaseURL(scheme, host string) string {
	return scheme + "://" + host
}

// FormatGrievance renders one grievance. Only the first photo is shown.
func FormatGrievance(g *model.Grievance, lookup Lookup, baseURL string) Grievance {
	out := Grievance{
		ID:          g.ID,
		TrackingID:  g.TrackingID,
		Description: g.Description,
		Address:     g.Address,
		Status:      g.Status,
		Photos:      []Photo{},
		CreatedAt:   g.CreatedAt,
		Category:    g.Category,
		Department:  DepartmentRef{Name: NotApplicable},
		Feedback:    g.Feedback,
	}
	if out.Category == "" {
		out.Category = NotApplicable
	}
	if p := g.FirstPhoto(); p != "" {
		out.Photos = append(out.Photos, Photo{URL: PhotoURL(baseURL, p), Path: p})
	}
	if g.DepartmentID != nil {
		if d, ok := lookup.Departments[*g.DepartmentID]; ok {
			out.Department = DepartmentRef{ID: d.ID, Name: d.Name}
		}
	}
	if u, ok := lookup.Users[g.SubmittedBy]; ok {
		out.SubmittedBy = &UserRef{ID: u.ID, Email: u.Email}
	}
	return out
}

// FormatGrievances renders a list, preserving order.
func FormatGrievances(list []model.Grievance, lookup Lookup, baseURL string) []Grievance {
	out := make([]Grievance, 0, len(list))
	for i := range list {
		out = append(out, FormatGrievance(&list[i], lookup, baseURL))
	}
	return out
}

// PhotoURL maps a stored path to its public URL using only the base name.
// Windows separators from older records are normalized first.
func PhotoURL(baseURL, stored string) string {
	name := path.Base(strings.ReplaceAll(stored, `\`, "/"))
	return baseURL + "/uploads/" + name
}
