// Package apitest provides an in-memory bug-tracker API for tests.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type user struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
	password string
	prefs    map[string]bool
}

type member struct {
	ID   string `json:"_id"`
	User *user  `json:"userId"`
	Role string `json:"role"`
}

type project struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   *user     `json:"createdBy"`
	Members     []*member `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type historyEntry struct {
	ID        string    `json:"_id"`
	Field     string    `json:"field"`
	OldValue  any       `json:"oldValue"`
	NewValue  any       `json:"newValue"`
	ChangedBy *user     `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
	Comment   string    `json:"comment,omitempty"`
}

type comment struct {
	ID        string    `json:"_id"`
	Author    *user     `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type bug struct {
	ID          string         `json:"_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    string         `json:"priority"`
	Status      string         `json:"status"`
	AssignedTo  *user          `json:"assignedTo,omitempty"`
	ReportedBy  *user          `json:"reportedBy"`
	Project     map[string]any `json:"project"`
	History     []historyEntry `json:"history"`
	Comments    []comment      `json:"comments"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	projectID string
}

// Server is a fake bug-tracker API backed by memory. It records every
// request so tests can assert that no call was made.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	seq      int
	clock    time.Time
	users    map[string]*user
	tokens   map[string]string
	projects []*project
	bugs     map[string]*bug
	failures map[string]int
	calls    []string
}

func NewServer() *Server {
	s := &Server{
		clock:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		users:    map[string]*user{},
		tokens:   map[string]string{},
		bugs:     map[string]*bug{},
		failures: map[string]int{},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// URL of the API root, as the client expects it.
func (s *Server) APIURL() string { return s.Server.URL + "/api" }

// AddUser registers a user and returns its id and a valid token.
func (s *Server) AddUser(name, email, password string) (id, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{ID: s.nextID("u"), Name: name, Email: email, password: password}
	s.users[u.ID] = u
	token = "tok-" + u.ID
	s.tokens[token] = u.ID
	return u.ID, token
}

// AddMember puts userID into projectID with role, bypassing permissions.
func (s *Server) AddMember(projectID, userID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProject(projectID)
	u := s.users[userID]
	if p == nil || u == nil {
		panic(fmt.Sprintf("apitest: unknown project %q or user %q", projectID, userID))
	}
	p.Members = append(p.Members, &member{ID: s.nextID("m"), User: u, Role: role})
}

// FailBugList makes listing bugs of projectID answer with status.
func (s *Server) FailBugList(projectID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["list:"+projectID] = status
}

// FailNext makes the next request whose "METHOD path" has the given prefix
// answer with status.
func (s *Server) FailNext(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["next:"+prefix] = status
}

// Calls returns "METHOD path" of every request received so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CountCalls counts requests whose "METHOD path" starts with prefix.
func (s *Server) CountCalls(prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func (s *Server) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Server) findProject(id string) *project {
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Server) router() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.record)

	api := r.Group("/api")
	api.POST("/auth/login", s.login)
	api.POST("/auth/register", s.register)
	api.POST("/auth/forgot-password", s.forgotPassword)
	api.POST("/auth/reset-password", s.resetPassword)

	authed := api.Group("")
	authed.Use(s.authenticate)
	authed.GET("/users/profile", s.profile)
	authed.PUT("/users/profile", s.updateProfile)
	authed.POST("/users/profile/avatar", s.uploadAvatar)
	authed.GET("/users", s.listUsers)
	authed.GET("/users/search", s.searchUsers)

	authed.GET("/projects", s.listProjects)
	authed.POST("/projects", s.createProject)
	authed.GET("/projects/:id", s.getProject)
	authed.PUT("/projects/:id", s.updateProject)
	authed.DELETE("/projects/:id", s.deleteProject)
	authed.GET("/projects/:id/members", s.listMembers)
	authed.POST("/projects/:id/members", s.addMember)
	authed.DELETE("/projects/:id/members/:memberId", s.removeMember)

	authed.GET("/projects/:id/bugs", s.listBugs)
	authed.POST("/projects/:id/bugs", s.createBug)
	authed.GET("/projects/:id/bugs/:bugId", s.getBug)
	authed.PUT("/projects/:id/bugs/:bugId", s.updateBug)
	authed.DELETE("/projects/:id/bugs/:bugId", s.deleteBug)
	authed.PUT("/projects/:id/bugs/:bugId/assign", s.assignBug)
	authed.POST("/projects/:id/bugs/:bugId/comments", s.addComment)
	return r
}

func (s *Server) record(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path
	s.mu.Lock()
	s.calls = append(s.calls, key)
	for k, status := range s.failures {
		if strings.HasPrefix(k, "next:") && strings.HasPrefix(key, strings.TrimPrefix(k, "next:")) {
			delete(s.failures, k)
			s.mu.Unlock()
			c.AbortWithStatusJSON(status, gin.H{"message": "injected failure"})
			return
		}
	}
	s.mu.Unlock()
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	h := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	s.mu.Lock()
	uid, ok := s.tokens[token]
	s.mu.Unlock()
	if !strings.HasPrefix(h, "Bearer ") || !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
		return
	}
	c.Set("uid", uid)
	c.Next()
}

func (s *Server) me(c *gin.Context) *user { return s.users[c.GetString("uid")] }

func (s *Server) login(c *gin.Context) {
	var in struct{ Email, Password string }
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, uid := range s.tokens {
		u := s.users[uid]
		if strings.EqualFold(u.Email, in.Email) && u.password == in.Password {
			c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
}

func (s *Server) register(c *gin.Context) {
	var in struct{ Name, Email, Password string }
	if err := c.ShouldBindJSON(&in); err != nil || in.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please add all fields"})
		return
	}
	s.mu.Lock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, in.Email) {
			s.mu.Unlock()
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
	}
	s.mu.Unlock()
	id, token := s.AddUser(in.Name, in.Email, in.Password)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": s.users[id]})
}

func (s *Server) forgotPassword(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

func (s *Server) resetPassword(c *gin.Context) {
	var in struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	_ = c.ShouldBindJSON(&in)
	if in.Token != "valid-reset" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func (s *Server) profile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.me(c)
	c.JSON(http.StatusOK, gin.H{
		"_id": u.ID, "name": u.Name, "email": u.Email, "avatar": u.Avatar, "bio": u.Bio,
		"contactPreferences": gin.H{
			"emailNotifications": u.prefs["email"],
			"smsNotifications":   u.prefs["sms"],
		},
	})
}

func (s *Server) updateProfile(c *gin.Context) {
	var in struct {
		Name               string          `json:"name"`
		Bio                string          `json:"bio"`
		ContactPreferences map[string]bool `json:"contactPreferences"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.me(c)
	if in.Name != "" {
		u.Name = in.Name
	}
	u.Bio = in.Bio
	if in.ContactPreferences != nil {
		u.prefs = map[string]bool{
			"email": in.ContactPreferences["emailNotifications"],
			"sms":   in.ContactPreferences["smsNotifications"],
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (s *Server) uploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.me(c)
	u.Avatar = "/uploads/" + fh.Filename
	c.JSON(http.StatusOK, gin.H{"avatar": u.Avatar})
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (s *Server) searchUsers(c *gin.Context) {
	q := strings.ToLower(c.Query("q"))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*user{}
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func roleOf(p *project, uid string) string {
	for _, m := range p.Members {
		if m.User.ID == uid {
			return m.Role
		}
	}
	return ""
}

// projectFor loads the project and checks membership; it writes the error
// response itself.
func (s *Server) projectFor(c *gin.Context, adminOnly bool) *project {
	p := s.findProject(c.Param("id"))
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return nil
	}
	role := roleOf(p, c.GetString("uid"))
	if role == "" || (adminOnly && role != "admin") {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized to access this project"})
		return nil
	}
	return p
}

func (s *Server) listProjects(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*project{}
	for i := len(s.projects) - 1; i >= 0; i-- {
		if roleOf(s.projects[i], c.GetString("uid")) != "" {
			out = append(out, s.projects[i])
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createProject(c *gin.Context) {
	var in struct{ Name, Description string }
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Project name is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	me := s.me(c)
	p := &project{
		ID: s.nextID("p"), Name: in.Name, Description: in.Description, CreatedBy: me,
		Members:   []*member{{ID: s.nextID("m"), User: me, Role: "admin"}},
		CreatedAt: now, UpdatedAt: now,
	}
	s.projects = append(s.projects, p)
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getProject(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.projectFor(c, false); p != nil {
		c.JSON(http.StatusOK, p)
	}
}

func (s *Server) updateProject(c *gin.Context) {
	var in struct{ Name, Description string }
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projectFor(c, true)
	if p == nil {
		return
	}
	p.Name, p.Description, p.UpdatedAt = in.Name, in.Description, s.now()
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projectFor(c, true)
	if p == nil {
		return
	}
	for i := range s.projects {
		if s.projects[i] == p {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project removed"})
}

func (s *Server) listMembers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.projectFor(c, false); p != nil {
		c.JSON(http.StatusOK, p.Members)
	}
}

func (s *Server) addMember(c *gin.Context) {
	var in struct {
		UserEmail string `json:"userEmail"`
		Role      string `json:"role"`
	}
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projectFor(c, true)
	if p == nil {
		return
	}
	var target *user
	for _, u := range s.users {
		if strings.EqualFold(u.Email, in.UserEmail) {
			target = u
		}
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if roleOf(p, target.ID) != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User is already a member of this project"})
		return
	}
	p.Members = append(p.Members, &member{ID: s.nextID("m"), User: target, Role: in.Role})
	c.JSON(http.StatusOK, p)
}

func (s *Server) removeMember(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projectFor(c, true)
	if p == nil {
		return
	}
	for i, m := range p.Members {
		if m.ID == c.Param("memberId") {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			c.JSON(http.StatusOK, p)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
}

var priorityRank = map[string]int{"low": 0, "medium": 1, "high": 2, "critical": 3}

func (s *Server) listBugs(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.failures["list:"+c.Param("id")]; ok {
		c.JSON(status, gin.H{"message": "injected failure"})
		return
	}
	p := s.projectFor(c, false)
	if p == nil {
		return
	}
	q := c.Request.URL.Query()
	search := strings.ToLower(q.Get("searchText"))
	out := []*bug{}
	for _, b := range s.bugs {
		if b.projectID != p.ID {
			continue
		}
		if v := q.Get("status"); v != "" && b.Status != v {
			continue
		}
		if v := q.Get("priority"); v != "" && b.Priority != v {
			continue
		}
		if v := q.Get("assignedTo"); v != "" && (b.AssignedTo == nil || b.AssignedTo.ID != v) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(b.Title+" "+b.Description), search) {
			continue
		}
		out = append(out, b)
	}
	desc := q.Get("sortOrder") != "asc"
	less := func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) }
	switch q.Get("sortBy") {
	case "title":
		less = func(i, j int) bool { return out[i].Title < out[j].Title }
	case "status":
		less = func(i, j int) bool { return out[i].Status < out[j].Status }
	case "priority":
		less = func(i, j int) bool { return priorityRank[out[i].Priority] < priorityRank[out[j].Priority] }
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
	total := len(out)
	if skip, err := strconv.Atoi(q.Get("skip")); err == nil && skip > 0 {
		if skip > len(out) {
			skip = len(out)
		}
		out = out[skip:]
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"bugs": out, "totalCount": total})
}

func (s *Server) bugFor(c *gin.Context) (*project, *bug) {
	p := s.projectFor(c, false)
	if p == nil {
		return nil, nil
	}
	b := s.bugs[c.Param("bugId")]
	if b == nil || b.projectID != p.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "Bug not found"})
		return nil, nil
	}
	return p, b
}

func (s *Server) createBug(c *gin.Context) {
	var in struct {
		Title, Description, Priority, Status, AssignedTo string
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projectFor(c, false)
	if p == nil {
		return
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	if in.Status == "" {
		in.Status = "open"
	}
	now := s.now()
	b := &bug{
		ID: s.nextID("b"), Title: in.Title, Description: in.Description,
		Priority: in.Priority, Status: in.Status, ReportedBy: s.me(c),
		Project:   map[string]any{"_id": p.ID, "name": p.Name},
		History:   []historyEntry{},
		Comments:  []comment{},
		CreatedAt: now, UpdatedAt: now, projectID: p.ID,
	}
	if in.AssignedTo != "" {
		b.AssignedTo = s.users[in.AssignedTo]
	}
	s.bugs[b.ID] = b
	c.JSON(http.StatusCreated, b)
}

func (s *Server) getBug(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, b := s.bugFor(c); b != nil {
		c.JSON(http.StatusOK, b)
	}
}

func (s *Server) updateBug(c *gin.Context) {
	var in struct {
		Priority      string `json:"priority"`
		Status        string `json:"status"`
		StatusComment string `json:"statusComment"`
	}
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, b := s.bugFor(c)
	if b == nil {
		return
	}
	now := s.now()
	me := s.me(c)
	if in.Status != "" && in.Status != b.Status {
		b.History = append(b.History, historyEntry{
			ID: s.nextID("h"), Field: "status", OldValue: b.Status, NewValue: in.Status,
			ChangedBy: me, ChangedAt: now, Comment: in.StatusComment,
		})
		b.Status = in.Status
	}
	if in.Priority != "" && in.Priority != b.Priority {
		b.History = append(b.History, historyEntry{
			ID: s.nextID("h"), Field: "priority", OldValue: b.Priority, NewValue: in.Priority,
			ChangedBy: me, ChangedAt: now,
		})
		b.Priority = in.Priority
	}
	b.UpdatedAt = now
	c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBug(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, b := s.bugFor(c); b != nil {
		delete(s.bugs, b.ID)
		c.JSON(http.StatusOK, gin.H{"message": "Bug removed"})
	}
}

func (s *Server) assignBug(c *gin.Context) {
	var in struct {
		AssignedTo string `json:"assignedTo"`
	}
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, b := s.bugFor(c)
	if b == nil {
		return
	}
	if roleOf(p, c.GetString("uid")) != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only project admins can assign bugs"})
		return
	}
	target := s.users[in.AssignedTo]
	if target == nil || roleOf(p, target.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User is not a member of this project"})
		return
	}
	var old any
	if b.AssignedTo != nil {
		old = b.AssignedTo.ID
	}
	now := s.now()
	b.History = append(b.History, historyEntry{
		ID: s.nextID("h"), Field: "assignedTo", OldValue: old, NewValue: target.ID,
		ChangedBy: s.me(c), ChangedAt: now,
	})
	b.AssignedTo = target
	b.UpdatedAt = now
	c.JSON(http.StatusOK, b)
}

func (s *Server) addComment(c *gin.Context) {
	var in struct {
		Content string `json:"content"`
	}
	_ = c.ShouldBindJSON(&in)
	if strings.TrimSpace(in.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Comment content is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, b := s.bugFor(c)
	if b == nil {
		return
	}
	cm := comment{ID: s.nextID("c"), Author: s.me(c), Content: in.Content, CreatedAt: s.now()}
	b.Comments = append(b.Comments, cm)
	c.JSON(http.StatusCreated, cm)
}
