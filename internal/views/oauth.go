package views

const (
	OAuthMessageSuccess = "oauth_success"
	OAuthMessageError   = "oauth_error"
)

// OAuthMessage is posted to the window that opened the OAuth popup.
type OAuthMessage struct {
	Type  string `json:"type"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type OAuthCallback struct {
	Title   string
	Heading string
	Text    string
	// nil when there is nothing to report to the opener
	Message *OAuthMessage
	// milliseconds before the popup closes itself
	CloseDelay int
}

func OAuthSuccess(code string) OAuthCallback {
	return OAuthCallback{
		Title:      "OAuth Success",
		Heading:    "Authentication Successful",
		Text:       "You can close this window and return to the application.",
		Message:    &OAuthMessage{Type: OAuthMessageSuccess, Code: code},
		CloseDelay: 1000,
	}
}

func OAuthError(reason string) OAuthCallback {
	return OAuthCallback{
		Title:   "OAuth Error",
		Heading: "OAuth Error",
		Text:    "Error: " + reason,
		Message: &OAuthMessage{Type: OAuthMessageError, Error: reason},
	}
}

func OAuthNoCode() OAuthCallback {
	return OAuthCallback{
		Title:   "OAuth Callback",
		Heading: "OAuth Callback",
		Text:    "No authorization code received.",
	}
}
