package user

// Principal is the authenticated caller resolved from a passport token.
type Principal struct {
	Username    string
	DisplayName string
	AvatarURL   string
	IsAdmin     bool
}
