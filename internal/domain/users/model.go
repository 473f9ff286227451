package users

import "time"

type Role string

const (
	RoleAdmin           Role = "admin"
	RoleManager         Role = "manager"
	RoleVeterinarian    Role = "veterinarian"
	RoleAnimalCare      Role = "animal_care"
	RoleMaintenance     Role = "maintenance"
	RoleVisitorServices Role = "visitor_services"
	RoleStaff           Role = "staff"
	RoleVisitor         Role = "visitor"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleVeterinarian, RoleAnimalCare, RoleMaintenance,
		RoleVisitorServices, RoleStaff, RoleVisitor:
		return true
	}
	return false
}

// LoginMeta se toma del request del último login exitoso.
type LoginMeta struct {
	IP             string `json:"ip"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os"`
	Mobile         bool   `json:"mobile"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`

	PasswordHash string `json:"-"`

	Role     Role `json:"role"`
	IsActive bool `json:"is_active"`

	LastLogin     *time.Time `json:"last_login,omitempty"`
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`
	LastLoginMeta *LoginMeta `json:"last_login_meta,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}
