package auth

import "dsadmin/apperror"

// Authorize is the access decision: granted iff required is in set.
// An empty requirement or an empty set never grants.
func Authorize(required string, set PermissionSet) bool {
	if required == "" || len(set) == 0 {
		return false
	}
	return set.Has(required)
}

// Predicate checks an already-resolved permission set.
type Predicate func(PermissionSet) error

// RequirePermission builds the per-operation check. It returns
// apperror.PermissionDenied without naming the missing permission.
func RequirePermission(name string) Predicate {
	return func(set PermissionSet) error {
		if Authorize(name, set) {
			return nil
		}
		return apperror.PermissionDenied
	}
}
