package model

// Principal is the authenticated caller as reported by the identity
// provider. It is produced once per request by the auth middleware and passed
// by value into the services.
type Principal struct {
	UserID      string `json:"sub"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	IconURL     string `json:"picture,omitempty"`
}
