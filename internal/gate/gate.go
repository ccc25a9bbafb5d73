// Package gate maps membership roles to permissions over the app's
// resources. It is the single checkpoint for "can this role do that": the
// role comes from the caller's tenant context, the permission names a
// resource and action ("company:update", "team:manage").
package gate

import "errors"

// ErrForbidden is returned by Authorize for a denied permission.
var ErrForbidden = errors.New("forbidden")

// Permission is "resource:action". The wildcard action "*" grants every
// action on a resource; "*:*" grants everything.
type Permission string

const wildcard = "*"

// Matches reports whether p grants the requested permission, honoring
// wildcards.
func (p Permission) Matches(requested Permission) bool {
	if p == "*:*" || p == requested {
		return true
	}
	res, act, ok := split(p)
	reqRes, _, reqOK := split(requested)
	return ok && reqOK && res == reqRes && act == wildcard
}

func split(p Permission) (resource, action string, ok bool) {
	s := string(p)
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// rolePermissions is the static policy table. Owner holds everything; admin
// runs the business and the team but not billing/company identity; sales
// works quotes and customers.
var rolePermissions = map[string][]Permission{
	"owner": {"*:*"},
	"admin": {
		"quote:*", "customer:*", "product:*",
		"team:manage", "company:view",
	},
	"sales": {
		"quote:*", "customer:*",
		"product:view", "company:view",
	},
}

// Can reports whether the role grants the permission. Unknown roles grant
// nothing.
func Can(role string, p Permission) bool {
	for _, granted := range rolePermissions[role] {
		if granted.Matches(p) {
			return true
		}
	}
	return false
}

// Authorize returns ErrForbidden unless the role grants the permission.
func Authorize(role string, p Permission) error {
	if !Can(role, p) {
		return ErrForbidden
	}
	return nil
}
