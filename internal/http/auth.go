package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/appstate"
	"github.com/avelkine/edushelf/internal/auth"
	"github.com/avelkine/edushelf/internal/session"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	store          *appstate.Store
	sessionManager *auth.SessionManager
}

func NewAuthController(store *appstate.Store, sessionManager *auth.SessionManager) *AuthController {
	return &AuthController{store: store, sessionManager: sessionManager}
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new registry entry. It does not log the user in.
// POST /api/register
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := ac.store.Register(req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrDuplicateUser):
			respondConflict(c, err.Error())
		case session.IsValidationError(err):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "register")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.Public()})
}

type loginRequest struct {
	Identity string `json:"identity"` // email or username
	Email    string `json:"email"`    // accepted as an alias for identity
	Password string `json:"password"`
}

// Login validates credentials, installs the session and binds it to the
// caller's cookie session.
// POST /api/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	identity := req.Identity
	if identity == "" {
		identity = req.Email
	}
	identity = session.NormalizeIdentity(identity)

	sess, err := ac.store.Login(identity, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			respondUnauthorized(c, "invalid credentials")
			return
		}
		respondInternalError(c, err, "login")
		return
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.Attach(c.Request, sess.Token); err != nil {
			respondInternalError(c, err, "attach session")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// Logout clears the session. Idempotent.
// POST /api/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.store.Logout(); err != nil {
		respondInternalError(c, err, "logout")
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.Detach(c.Request)
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}

// Session reports the current session, if any. Clients use this at launch to
// pick the initial screen; the response also hands out the CSRF token that
// cookie-authenticated mutations must echo back.
// GET /api/session
func (ac *AuthController) Session(c *gin.Context) {
	if token := auth.GetCSRFToken(c); token != "" {
		c.Header(auth.CSRFTokenHeader, token)
	}

	snapshot := ac.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"session": snapshot.Session})
}
