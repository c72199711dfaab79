package models

type UserRole string

const (
	RoleAdmin   UserRole = "Admin"
	RoleTeacher UserRole = "Teacher"
	RoleStudent UserRole = "Student"
)

// NotSpecified is the sheet placeholder written into blank cells. It doubles
// as the "open to everyone" sentinel in designation checks.
const NotSpecified = "Not specified"

const (
	DefaultAdminImageURL   = "https://images.unsplash.com/photo-1635260191916-511fa73aa2dd?q"
	DefaultTeacherImageURL = "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?q"
	DefaultStudentImageURL = "https://images.unsplash.com/photo-1535713566543-0ca126c9a646?q"
	ExecutiveDepartment    = "Executive"
)

// LoginUser is one row of the flat credential sheet. Password is either a
// bcrypt hash (new rows) or legacy plaintext (rows imported from the old
// spreadsheet); identity.verifyPassword handles both.
type LoginUser struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Password string   `json:"password,omitempty"`
	Role     UserRole `json:"role"`
}

// TeacherUser is a row of the Teachers directory sheet.
type TeacherUser struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Role            UserRole `json:"role"`
	ProfileImageURL string   `json:"profileImageUrl"`
	Department      string   `json:"department"`
}

// StudentUser is a row of one of the StudentsM4/M5/M6 directory sheets.
type StudentUser struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Role            UserRole `json:"role"`
	ProfileImageURL string   `json:"profileImageUrl"`
	StudentID       string   `json:"studentId"`
	Grade           int      `json:"grade"`
	Classroom       string   `json:"classroom"`
}

// Profile is the resolved session identity. Role is immutable after
// resolution; the directory fields are structural, not loan-related.
type Profile struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Role            UserRole `json:"role"`
	ProfileImageURL string   `json:"profileImageUrl"`
	Department      string   `json:"department,omitempty"`
	StudentID       string   `json:"studentId,omitempty"`
	Grade           int      `json:"grade,omitempty"`
	Classroom       string   `json:"classroom,omitempty"`
}

func (t TeacherUser) Profile() Profile {
	return Profile{
		ID:              t.ID,
		Username:        t.Username,
		Email:           t.Email,
		Role:            t.Role,
		ProfileImageURL: t.ProfileImageURL,
		Department:      t.Department,
	}
}

func (s StudentUser) Profile() Profile {
	return Profile{
		ID:              s.ID,
		Username:        s.Username,
		Email:           s.Email,
		Role:            s.Role,
		ProfileImageURL: s.ProfileImageURL,
		StudentID:       s.StudentID,
		Grade:           s.Grade,
		Classroom:       s.Classroom,
	}
}

func (p Profile) IsAdmin() bool { return p.Role == RoleAdmin }
