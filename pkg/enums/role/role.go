package role

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is a closed set of user roles. The zero value grants nothing.
type Role struct {
	Name string
}

func (r Role) Code() string {
	return r.Name
}

// Label renders "cook-lb" as "Cook LB": the duty is title-cased and the
// establishment suffix is upper-cased.
func (r Role) Label() string {
	if r.Name == "" {
		return ""
	}
	parts := strings.Split(r.Name, "-")
	parts[0] = cases.Title(language.Und).String(parts[0])
	for i := 1; i < len(parts); i++ {
		parts[i] = strings.ToUpper(parts[i])
	}
	return strings.Join(parts, " ")
}

func (r Role) IsZero() bool {
	return r.Name == ""
}

func (r Role) IsAdmin() bool {
	return r.Name == Roles.Admin.Name
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range capabilities[r.Name] {
		if granted == c {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer so roles persist as their code.
func (r Role) Value() (driver.Value, error) {
	return r.Name, nil
}

// Scan implements sql.Scanner.
func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		r.Name = ""
	case string:
		r.Name = v
	case []byte:
		r.Name = string(v)
	default:
		return fmt.Errorf("role: cannot scan %T", src)
	}
	return nil
}

type Enum struct {
	Admin    Role
	CookLB   Role
	PizzaLB  Role
	SushiLB  Role
	SeniorLB Role
	CookPB   Role
	SushiPB  Role
	SeniorPB Role
	PizzaPB  Role
}

var Roles = Enum{
	Admin:    Role{Name: "admin"},
	CookLB:   Role{Name: "cook-lb"},
	PizzaLB:  Role{Name: "pizza-lb"},
	SushiLB:  Role{Name: "sushi-lb"},
	SeniorLB: Role{Name: "senior-lb"},
	CookPB:   Role{Name: "cook-pb"},
	SushiPB:  Role{Name: "sushi-pb"},
	SeniorPB: Role{Name: "senior-pb"},
	PizzaPB:  Role{Name: "pizza-pb"},
}

var All = []Role{
	Roles.Admin,
	Roles.CookLB,
	Roles.PizzaLB,
	Roles.SushiLB,
	Roles.SeniorLB,
	Roles.CookPB,
	Roles.SushiPB,
	Roles.SeniorPB,
	Roles.PizzaPB,
}

// Kitchen lists the roles offered at self-registration.
var Kitchen = All[1:]

// ByName returns the role for a given name, or nil if not found
func ByName(name string) *Role {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range All {
		if r.Name == name {
			return &r
		}
	}
	return nil
}
