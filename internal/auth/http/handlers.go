package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/auth/domain"
	"github.com/bugboard/bugboard/internal/breadcrumb"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/validation"
	"github.com/bugboard/bugboard/internal/web"
)

func (h *Handler) loginPage(c *gin.Context) {
	r := web.From(c)
	r.Render(http.StatusOK, "login.html", web.Page{
		Title: "Welcome Back",
		Data:  loginData{GoogleURL: r.API().GoogleAuthURL(), Notice: oauthNotices[c.Query("error")]},
	})
}

// formErrors turns err into per-field messages, or puts it under
// "general" with fallback when it is not a validation failure.
func formErrors(err error, fallback string) validation.Errors {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs
	}
	return validation.Errors{}.Add("general", client.Message(err, fallback))
}

func (h *Handler) login(c *gin.Context) {
	r := web.From(c)
	var req domain.LoginRequest
	_ = c.ShouldBind(&req)
	req.Email = strings.TrimSpace(req.Email)

	fail := func(status int, err error) {
		r.Render(status, "login.html", web.Page{
			Title:  "Welcome Back",
			Errors: formErrors(err, "Login failed. Please try again."),
			Form:   map[string]string{"email": req.Email},
			Data:   loginData{GoogleURL: r.API().GoogleAuthURL()},
		})
	}

	if err := validation.Struct(req); err != nil {
		fail(http.StatusUnprocessableEntity, err)
		return
	}
	u, err := r.Session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logging.FromContext(c.Request.Context()).LogInfof("login", "rejected for %s: %v", req.Email, err)
		fail(http.StatusUnauthorized, err)
		return
	}
	logging.FromContext(c.Request.Context()).LogInfof("login", "user=%s signed in", u.ID)
	r.Trail.Set(breadcrumb.Dashboard()...)
	r.Redirect("/dashboard")
}

func (h *Handler) registerPage(c *gin.Context) {
	web.From(c).Render(http.StatusOK, "register.html", web.Page{Title: "Create Account"})
}

func (h *Handler) register(c *gin.Context) {
	r := web.From(c)
	var req domain.RegisterRequest
	_ = c.ShouldBind(&req)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	fail := func(status int, err error) {
		r.Render(status, "register.html", web.Page{
			Title:  "Create Account",
			Errors: formErrors(err, "Registration failed. Please try again."),
			Form:   map[string]string{"name": req.Name, "email": req.Email},
		})
	}

	if err := validation.Struct(req); err != nil {
		fail(http.StatusUnprocessableEntity, err)
		return
	}
	if _, err := r.Session.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		fail(http.StatusBadRequest, err)
		return
	}
	r.Trail.Set(breadcrumb.Dashboard()...)
	r.Redirect("/dashboard")
}

func (h *Handler) forgotPage(c *gin.Context) {
	web.From(c).Render(http.StatusOK, "forgot_password.html", web.Page{Title: "Forgot Password", Data: forgotData{}})
}

func (h *Handler) forgotPassword(c *gin.Context) {
	r := web.From(c)
	var req domain.ForgotPasswordRequest
	_ = c.ShouldBind(&req)
	req.Email = strings.TrimSpace(req.Email)

	err := validation.Struct(req)
	if err == nil {
		err = r.API().ForgotPassword(c.Request.Context(), req.Email)
	}
	if err != nil {
		r.Render(http.StatusUnprocessableEntity, "forgot_password.html", web.Page{
			Title:  "Forgot Password",
			Errors: formErrors(err, "Failed to send reset email. Please try again."),
			Form:   map[string]string{"email": req.Email},
			Data:   forgotData{},
		})
		return
	}
	r.Render(http.StatusOK, "forgot_password.html", web.Page{
		Title: "Check Your Email",
		Data:  forgotData{Sent: true, Email: req.Email},
	})
}

func (h *Handler) resetPage(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	status, title := http.StatusOK, "Reset Password"
	if token == "" {
		status, title = http.StatusBadRequest, "Invalid Link"
	}
	web.From(c).Render(status, "reset_password.html", web.Page{
		Title: title,
		Data:  resetData{Token: token, Invalid: token == ""},
	})
}

func (h *Handler) resetPassword(c *gin.Context) {
	r := web.From(c)
	var req domain.ResetPasswordRequest
	_ = c.ShouldBind(&req)
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		r.Render(http.StatusBadRequest, "reset_password.html", web.Page{
			Title: "Invalid Link",
			Data:  resetData{Invalid: true},
		})
		return
	}

	err := validation.Struct(req)
	if err == nil {
		err = r.API().ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	}
	if err != nil {
		r.Render(http.StatusUnprocessableEntity, "reset_password.html", web.Page{
			Title:  "Reset Password",
			Errors: formErrors(err, "Failed to reset password. Please try again."),
			Data:   resetData{Token: req.Token},
		})
		return
	}
	r.Render(http.StatusOK, "reset_password.html", web.Page{
		Title: "Password Reset",
		Data:  resetData{Done: true},
	})
}

// oauthCallback finishes Google sign-in: the API redirects here with
// ?token= on success or ?error= on failure.
func (h *Handler) oauthCallback(c *gin.Context) {
	r := web.From(c)
	if e := c.Query("error"); e != "" {
		logging.FromContext(c.Request.Context()).LogWarnf("oauth_callback", "provider error: %s", e)
		r.Redirect("/login?error=oauth_failed")
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		r.Redirect("/login?error=no_token")
		return
	}
	if _, err := r.Session.Adopt(c.Request.Context(), token); err != nil {
		logging.FromContext(c.Request.Context()).LogWarnf("oauth_callback", "token rejected: %v", err)
		r.Redirect("/login?error=oauth_failed")
		return
	}
	r.Trail.Set(breadcrumb.Dashboard()...)
	r.Redirect("/dashboard")
}

func (h *Handler) logout(c *gin.Context) {
	r := web.From(c)
	r.Session.Logout()
	r.Trail.Set(breadcrumb.Dashboard()...)
	r.Redirect("/login")
}
