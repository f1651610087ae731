package models

import "fmt"

// Role is the closed set of account roles.
type Role int

const (
	RoleUnknown Role = iota
	RoleEstateAdmin
	RoleManager
	RoleTechnician
	RoleTenant
)

var roleNames = map[Role]string{
	RoleEstateAdmin: "estate_admin",
	RoleManager:     "manager",
	RoleTechnician:  "technician",
	RoleTenant:      "tenant",
}

// ParseRole maps a wire name to a Role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

func (r Role) MarshalText() ([]byte, error) {
	if _, ok := roleNames[r]; !ok {
		return nil, fmt.Errorf("cannot encode role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
