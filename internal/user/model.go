package user

import "time"

// Role is the closed set of account types that participate in care
// conversations. Anything else is rejected at the service layer.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

type User struct {
	ID                string    `json:"id"`
	ExternalID        string    `json:"external_id"`
	Role              Role      `json:"role"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	ImageURL          string    `json:"image_url"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	Specialization    string    `json:"specialization,omitempty"`
	YearsOfExperience int       `json:"years_of_experience,omitempty"`
	Password          string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

// FullName is the display name used in presence member payloads.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// SenderView is the condensed profile attached to chat messages so the UI
// does not need a second lookup per message.
type SenderView struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
	Role      Role   `json:"role"`
}

// DoctorView is the doctor projection shown to patients. Specialization and
// experience are included because patients choose providers by them.
type DoctorView struct {
	ID                string `json:"id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	ImageURL          string `json:"image_url"`
	Specialization    string `json:"specialization,omitempty"`
	YearsOfExperience int    `json:"years_of_experience,omitempty"`
}

// PatientView is the patient projection shown to doctors. Contact fields are
// included for care coordination.
type PatientView struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

type RegisterRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	Role              Role   `json:"role"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	ImageURL          string `json:"image_url"`
	Phone             string `json:"phone"`
	Specialization    string `json:"specialization"`
	YearsOfExperience int    `json:"years_of_experience"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ID          string `json:"id"`
	ExternalID  string `json:"external_id"`
	Role        Role   `json:"role"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}
