package http

// Handler serves the sign-in, registration and password pages. Everything
// it needs comes from the per-request web.Request.
type Handler struct{}

func New() *Handler {
	return &Handler{}
}

type loginData struct {
	GoogleURL string
	Notice    string
}

type forgotData struct {
	Sent  bool
	Email string
}

type resetData struct {
	Token   string
	Invalid bool
	Done    bool
}

// oauthNotices maps the ?error= codes the OAuth callback redirects with.
var oauthNotices = map[string]string{
	"oauth_failed": "Google sign-in failed. Please try again.",
	"no_token":     "Google sign-in did not return a session. Please try again.",
}
