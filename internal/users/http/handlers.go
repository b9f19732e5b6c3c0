package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bugboard/bugboard/internal/auth/domain"
	"github.com/bugboard/bugboard/internal/breadcrumb"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/users"
	"github.com/bugboard/bugboard/internal/validation"
	"github.com/bugboard/bugboard/internal/web"
)

const bioMax = 300

func (h *Handler) render(r *web.Request, status int, u *domain.User, editing bool, errs validation.Errors) {
	r.Trail.Set(breadcrumb.Profile()...)
	r.Render(status, "profile.html", web.Page{
		Title:  "Profile Settings",
		Errors: errs,
		Data: profileData{
			Profile:   u,
			AvatarURL: users.AvatarURL(r.API().BaseURL(), u.Avatar),
			Editing:   editing,
			BioMax:    bioMax,
		},
	})
}

// GetProfile shows the current user's profile; ?edit=1 opens the form
func (h *Handler) GetProfile(c *gin.Context) {
	r := web.From(c)
	u, err := users.NewProfileService(r.API(), r.Notes).Get(c.Request.Context())
	if err != nil {
		if r.Expired(err) {
			return
		}
		logging.FromContext(c.Request.Context()).LogError("get_profile", err)
		u = r.User()
	}
	h.render(r, http.StatusOK, u, c.Query("edit") != "", nil)
}

// UpdateProfile saves the profile form. Invalid input re-opens the form
func (h *Handler) UpdateProfile(c *gin.Context) {
	r := web.From(c)
	var form profileForm
	_ = c.ShouldBind(&form)
	req := form.request()

	u, err := users.NewProfileService(r.API(), r.Notes).Update(c.Request.Context(), req)
	if err != nil {
		if r.Expired(err) {
			return
		}
		shown := *r.User()
		shown.Name, shown.Bio, shown.ContactPreferences = req.Name, req.Bio, req.ContactPreferences
		errs, _ := err.(validation.Errors)
		h.render(r, http.StatusUnprocessableEntity, &shown, true, errs)
		return
	}
	r.Session.Refresh(u)
	r.Redirect("/profile")
}

// UploadAvatar takes the multipart "avatar" file
func (h *Handler) UploadAvatar(c *gin.Context) {
	r := web.From(c)
	fh, err := c.FormFile("avatar")
	if err != nil {
		r.Notes.Error(c.Request.Context(), "Please select an image file")
		r.Redirect("/profile")
		return
	}
	f, err := fh.Open()
	if err != nil {
		logging.FromContext(c.Request.Context()).LogError("upload_avatar", err)
		r.Notes.Error(c.Request.Context(), "Failed to upload avatar")
		r.Redirect("/profile")
		return
	}
	defer f.Close()

	avatar, err := users.NewProfileService(r.API(), r.Notes).UploadAvatar(c.Request.Context(), fh.Filename, fh.Size, f)
	if err != nil {
		if r.Expired(err) {
			return
		}
		r.Redirect("/profile")
		return
	}
	if u := r.User(); u != nil {
		updated := *u
		updated.Avatar = avatar
		r.Session.Refresh(&updated)
	}
	r.Redirect("/profile")
}
