package authtest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// LoginShape selects how the fake API wraps a successful login response.
type LoginShape int

const (
	ShapeEnvelope     LoginShape = iota // {"statusCode":200,"data":{"accessToken":...}}
	ShapeBare                           // {"accessToken":...}
	ShapeMissingToken                   // {"statusCode":200,"data":{}}
)

type account struct {
	password string
	roles    []string
}

// Server is a fake clinic API: /login, /logout and a protected /patients.
type Server struct {
	*httptest.Server
	Issuer *Issuer

	mu          sync.Mutex
	accounts    map[string]account
	revoked     map[string]bool
	shape       LoginShape
	failLogout  bool
	loginCalls  atomic.Int32
	logoutCalls atomic.Int32
}

type Option func(*Server)

func WithLoginShape(shape LoginShape) Option {
	return func(s *Server) { s.shape = shape }
}

func WithFailingLogout() Option {
	return func(s *Server) { s.failLogout = true }
}

func WithAccount(username, password string, roles ...string) Option {
	return func(s *Server) { s.accounts[username] = account{password: password, roles: roles} }
}

// NewServer starts the fake API and closes it when the test ends. It always
// knows the account "admin"/"admin123" with role ADMIN.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		Issuer:   NewIssuer("test-secret", time.Hour),
		accounts: map[string]account{"admin": {password: "admin123", roles: []string{"ADMIN"}}},
		revoked:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.POST("/login", s.login)

	protected := r.Group("/")
	protected.Use(BearerMiddleware(s.Issuer, s.isRevoked))
	{
		protected.POST("/logout", s.logout)
		protected.GET("/patients", s.patients)
	}

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)
	return s
}

// Revoke makes the server answer 401 to any further request carrying token.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

func (s *Server) LoginCalls() int  { return int(s.loginCalls.Load()) }
func (s *Server) LogoutCalls() int { return int(s.logoutCalls.Load()) }

func (s *Server) isRevoked(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[token]
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	s.loginCalls.Add(1)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"statusCode": 400, "message": "Username and password are required"})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || acct.password != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"statusCode": 400, "message": "Bad credentials"})
		return
	}

	token, err := s.Issuer.Issue(req.Username, acct.roles...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"statusCode": 500, "message": err.Error()})
		return
	}

	switch s.shape {
	case ShapeBare:
		c.JSON(http.StatusOK, gin.H{"accessToken": token})
	case ShapeMissingToken:
		c.JSON(http.StatusOK, gin.H{"statusCode": 200, "data": gin.H{}})
	default:
		c.JSON(http.StatusOK, gin.H{"statusCode": 200, "message": "ok", "data": gin.H{"accessToken": token}})
	}
}

func (s *Server) logout(c *gin.Context) {
	s.logoutCalls.Add(1)
	if s.failLogout {
		c.JSON(http.StatusInternalServerError, gin.H{"statusCode": 500, "message": "logout unavailable"})
		return
	}
	s.Revoke(c.GetString("token"))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) patients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statusCode": 200,
		"data": gin.H{
			"items": []gin.H{{"id": 1, "code": "BN0001", "fullName": "Nguyen Van A"}},
			"page":  0,
			"size":  20,
		},
	})
}
