package directory

import "campuspulse/pkg/domain"

// Participant is a principal capable of registering for events. The role tags
// which variant payload is populated: students carry a roll number, faculty an
// employee ID and department. Only students accrue incentive points.
type Participant struct {
	ID    domain.ParticipantID
	Name  string
	Email string
	Role  domain.Role

	Student *StudentProfile
	Faculty *FacultyProfile
}

// StudentProfile is the student variant payload.
type StudentProfile struct {
	RollNumber string
}

// FacultyProfile is the faculty variant payload.
type FacultyProfile struct {
	EmployeeID string
	Department string
}

// RollNumber returns the student roll number, or empty for faculty.
func (p *Participant) RollNumber() string {
	if p.Student != nil {
		return p.Student.RollNumber
	}
	return ""
}
