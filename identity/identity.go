package identity

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"deviceloan/models"
	"deviceloan/state"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProfileResolution means a login record matched but no profile could
	// be constructed for it.
	ErrProfileResolution = errors.New("could not resolve profile")
)

const adminEmail = "admin@spk.ac.th"

// Resolver maps a login credential to a role-tagged profile drawn from the
// teacher and student directories, plus one synthesized admin account that
// exists in no directory.
type Resolver struct {
	state         *state.AppState
	adminUsername string
	adminPassword string
	log           *zap.Logger
}

func NewResolver(st *state.AppState, adminUsername, adminPassword string, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{state: st, adminUsername: adminUsername, adminPassword: adminPassword, log: log}
}

// Authenticate resolves identifier+password to a profile. Matching is
// case-insensitive here and only here; everywhere else in the system name
// joins are exact.
func (r *Resolver) Authenticate(identifier, password string) (models.Profile, error) {
	ident := strings.ToLower(strings.TrimSpace(identifier))

	// The fixed admin pair short-circuits everything, including empty
	// directories.
	if ident == strings.ToLower(r.adminUsername) && password == r.adminPassword {
		return models.Profile{
			ID:              "admin-user",
			Username:        "Admin",
			Email:           adminEmail,
			Role:            models.RoleAdmin,
			ProfileImageURL: models.DefaultAdminImageURL,
			Department:      models.ExecutiveDepartment,
		}, nil
	}

	var login *models.LoginUser
	for _, u := range r.state.Logins() {
		if strings.ToLower(u.ID) == ident || (u.Email != "" && strings.ToLower(u.Email) == ident) {
			l := u
			login = &l
			break
		}
	}
	if login == nil {
		return models.Profile{}, ErrInvalidCredentials
	}
	if !r.verifyPassword(login.Password, password) {
		return models.Profile{}, ErrInvalidCredentials
	}

	if p, ok := r.resolveDirectoryProfile(*login); ok {
		return p, nil
	}
	if p, ok := fallbackProfile(*login); ok {
		return p, nil
	}
	return models.Profile{}, ErrProfileResolution
}

// verifyPassword accepts bcrypt hashes and, for rows imported from the old
// spreadsheet, legacy plaintext. A row with no stored password passes.
func (r *Resolver) verifyPassword(stored, supplied string) bool {
	if stored == "" {
		return true
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	r.log.Warn("login row still carries a plaintext password; rehash it")
	return stored == supplied
}

// resolveDirectoryProfile prefers an exact (case-insensitive) email match in
// the directory selected by the login record's role.
func (r *Resolver) resolveDirectoryProfile(login models.LoginUser) (models.Profile, bool) {
	if login.Email == "" {
		return models.Profile{}, false
	}
	email := strings.ToLower(login.Email)
	switch login.Role {
	case models.RoleTeacher:
		for _, t := range r.state.Teachers() {
			if strings.ToLower(t.Email) == email {
				return t.Profile(), true
			}
		}
	case models.RoleStudent:
		for _, s := range r.state.Students() {
			if strings.ToLower(s.Email) == email {
				return s.Profile(), true
			}
		}
	case models.RoleAdmin:
		return models.Profile{
			ID:              login.ID,
			Username:        login.ID,
			Email:           login.Email,
			Role:            models.RoleAdmin,
			ProfileImageURL: models.DefaultAdminImageURL,
			Department:      models.ExecutiveDepartment,
		}, true
	}
	return models.Profile{}, false
}

// fallbackProfile synthesizes a minimal profile from the login record alone,
// with role-appropriate placeholders for the structural fields.
func fallbackProfile(login models.LoginUser) (models.Profile, bool) {
	base := models.Profile{
		ID:       login.ID,
		Username: login.ID,
		Email:    login.Email,
		Role:     login.Role,
	}
	switch login.Role {
	case models.RoleTeacher:
		base.ProfileImageURL = models.DefaultTeacherImageURL
		base.Department = models.ExecutiveDepartment
	case models.RoleStudent:
		base.ProfileImageURL = models.DefaultStudentImageURL
		base.StudentID = login.ID
	case models.RoleAdmin:
		base.ProfileImageURL = models.DefaultAdminImageURL
		base.Department = models.ExecutiveDepartment
	default:
		return models.Profile{}, false
	}
	return base, true
}
