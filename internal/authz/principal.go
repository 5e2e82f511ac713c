package authz

// Principal is the authenticated caller as established by the session
// middleware: who they are, which organization their session is bound
// to, and the role they hold there. UserID is the identity provider's
// user id from the session's sub claim (the "user_..." form stored in
// users.identity_user_id), not an internal row id.
type Principal struct {
	UserID string
	OrgID  string
	Role   Role
}
