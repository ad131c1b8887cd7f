package workflow

import "fmt"

// Role tags the three kinds of actor. The original system told customers and
// staff apart by parsing an id prefix out of the session; here every store
// operation takes an explicit Actor and dispatches on the tag.
type Role int

const (
	RoleAdmin Role = iota + 1
	RoleStaff
	RoleCustomer
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStaff:
		return "staff"
	case RoleCustomer:
		return "customer"
	}
	return "unknown"
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "staff":
		return RoleStaff, nil
	case "customer":
		return RoleCustomer, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

type Actor struct {
	ID   int64
	Role Role
}

func Admin(id int64) Actor    { return Actor{ID: id, Role: RoleAdmin} }
func Staff(id int64) Actor    { return Actor{ID: id, Role: RoleStaff} }
func Customer(id int64) Actor { return Actor{ID: id, Role: RoleCustomer} }

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsStaff() bool    { return a.Role == RoleStaff }
func (a Actor) IsCustomer() bool { return a.Role == RoleCustomer }
