package domain

// Session is the authenticated identity and credential held by the client.
type Session struct {
	User            *UserProfile `json:"user"`
	AccessToken     string       `json:"accessToken"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Valid reports whether IsAuthenticated agrees with the presence of a user and token.
func (s Session) Valid() bool {
	return s.IsAuthenticated == (s.User != nil && s.AccessToken != "")
}

// AuthResult is the data returned by the login and register endpoints.
type AuthResult struct {
	User        UserProfile `json:"user"`
	AccessToken string      `json:"accessToken"`
}
