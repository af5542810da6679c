package service

// Principal is the authenticated caller: a user id and exactly one role name.
// It is resolved outside this package (session middleware in production, test
// fixtures in tests) and passed explicitly into every operation; the services
// never read ambient identity state.
type Principal struct {
	UserID uint
	Role   string
}
