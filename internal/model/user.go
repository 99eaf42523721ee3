package model

// UserRole is the application role attached to an account.
type UserRole string

const (
	RoleOwner     UserRole = "owner"
	RoleAdmin     UserRole = "admin"
	RoleBiller    UserRole = "biller"
	RoleClinician UserRole = "clinician"
)

// User is the account a signup call hands to the identity provider.
//
// WHY NO DB TAGS?
// Unlike most models, User is never persisted locally. The remote provider is
// the system of record; a User lives only for the duration of one signup call.
type User struct {
	ID        string // remote identifier, empty until the provider assigns one
	Username  string
	Email     Email
	Password  Password
	FirstName string
	LastName  string
	Role      *UserRole
}

// NewUser builds a User that has not been created remotely yet.
func NewUser(username string, email Email, password Password, firstName, lastName string, role *UserRole) *User {
	return &User{
		Username:  username,
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	}
}

// UserUpdate is a partial projection of User. Nil fields are left untouched
// by Apply.
type UserUpdate struct {
	ID        *string
	Email     *Email
	Password  *Password
	FirstName *string
	LastName  *string
	Role      *UserRole
}

// Apply copies every non-nil field of update onto u.
func (u *User) Apply(update UserUpdate) {
	if update.ID != nil {
		u.ID = *update.ID
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Password != nil {
		u.Password = *update.Password
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.Role != nil {
		role := *update.Role
		u.Role = &role
	}
}

// Credential is one entry of a provider signup payload.
type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// SignupPayload is the user representation accepted by the provider's admin
// users endpoint.
type SignupPayload struct {
	Username      string       `json:"username"`
	Email         string       `json:"email"`
	FirstName     string       `json:"firstName"`
	LastName      string       `json:"lastName"`
	Enabled       bool         `json:"enabled"`
	EmailVerified bool         `json:"emailVerified"`
	Credentials   []Credential `json:"credentials"`
}

// SignupPayload exposes the email and password secrets into the outbound
// representation. The result must only be sent to the provider, never logged.
func (u *User) SignupPayload(enabled, verified bool) SignupPayload {
	return SignupPayload{
		Username:      u.Username,
		Email:         u.Email.Expose(),
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Enabled:       enabled,
		EmailVerified: verified,
		Credentials: []Credential{{
			Type:      "password",
			Value:     u.Password.Expose(),
			Temporary: false,
		}},
	}
}
