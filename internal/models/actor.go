package models

import "github.com/golang-jwt/jwt/v5"

// Role represents a role granted by the institutional SSO.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleStaff       Role = "STAFF"
	RoleCoordinator Role = "COORDINATOR"
	RoleStudent     Role = "STUDENT"
)

// Permission strings attached declaratively to engine operations.
const (
	PermProjectRead        = "vm.project.read"
	PermProjectWrite       = "vm.project.write"
	PermProjectPublish     = "vm.project.publish"
	PermProcessWrite       = "vm.process.write"
	PermSessionWrite       = "vm.session.write"
	PermEnrollmentSelf     = "vm.enrollment.self"
	PermEnrollmentRead     = "vm.enrollment.read"
	PermAttendanceOpen     = "vm.attendance.open"
	PermCheckInQR          = "vm.checkin.qr"
	PermCheckInManual      = "vm.checkin.manual"
	PermAttendanceRead     = "vm.attendance.read"
	PermAttendanceJustify  = "vm.attendance.justify"
	PermAttendanceValidate = "vm.attendance.validate"
	PermReportRead         = "vm.report.read"
)

// rolePermissions defines the default grants per role. COORDINATOR is
// deliberately read-only on projects, processes, sessions and attendance.
var rolePermissions = map[Role][]string{
	RoleStudent: {
		PermProjectRead,
		PermEnrollmentSelf,
		PermCheckInQR,
	},
	RoleCoordinator: {
		PermProjectRead,
		PermEnrollmentRead,
		PermAttendanceRead,
		PermReportRead,
	},
	RoleStaff: {
		PermProjectRead,
		PermProjectWrite,
		PermProjectPublish,
		PermProcessWrite,
		PermSessionWrite,
		PermEnrollmentRead,
		PermAttendanceOpen,
		PermCheckInManual,
		PermAttendanceRead,
		PermAttendanceJustify,
		PermAttendanceValidate,
		PermReportRead,
	},
}

// PermissionsForRole returns the default permission grants for a role.
// ADMIN receives the union of every role's grants.
func PermissionsForRole(role Role) []string {
	if role == RoleAdmin {
		seen := make(map[string]struct{})
		var all []string
		for _, perms := range rolePermissions {
			for _, p := range perms {
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				all = append(all, p)
			}
		}
		return all
	}
	return rolePermissions[role]
}

// ActorClaims is the JWT payload issued by the institutional SSO. The engine
// consumes it as an opaque actor context; it never issues tokens.
type ActorClaims struct {
	UserID          string   `json:"user_id"`
	StudentRecordID string   `json:"student_record_id,omitempty"`
	Roles           []Role   `json:"roles"`
	Permissions     []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the resolved per-request actor context.
type Actor struct {
	UserID          string
	StudentRecordID string
	Roles           []Role
	permissions     map[string]struct{}
}

// NewActor builds an Actor from claims, merging explicit permission grants
// with the defaults for each role.
func NewActor(claims *ActorClaims) *Actor {
	perms := make(map[string]struct{})
	for _, role := range claims.Roles {
		for _, p := range PermissionsForRole(role) {
			perms[p] = struct{}{}
		}
	}
	for _, p := range claims.Permissions {
		perms[p] = struct{}{}
	}
	return &Actor{
		UserID:          claims.UserID,
		StudentRecordID: claims.StudentRecordID,
		Roles:           claims.Roles,
		permissions:     perms,
	}
}

// Can reports whether the actor holds the given permission.
func (a *Actor) Can(permission string) bool {
	if a == nil {
		return false
	}
	_, ok := a.permissions[permission]
	return ok
}

// HasRole reports whether the actor holds the given role.
func (a *Actor) HasRole(role Role) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
