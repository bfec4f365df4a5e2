package controller

import (
	"errors"

	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/util/metrics"
	"github.com/spu-nas/nasweb/web/entity"
	"github.com/spu-nas/nasweb/web/service"
	"github.com/spu-nas/nasweb/web/session"

	"github.com/gin-gonic/gin"
)

// UsersController handles login, registration and logout.
type UsersController struct {
	BaseController

	authService service.AuthService
}

// NewUsersController creates a new UsersController and initializes its routes.
func NewUsersController(g *gin.RouterGroup) *UsersController {
	a := &UsersController{}
	a.initRouter(g)
	return a
}

func (a *UsersController) initRouter(g *gin.RouterGroup) {
	users := g.Group("/users")
	users.GET("/login", a.loginPage)
	users.GET("/register", a.registerPage)
	users.POST("/login", a.login)
	users.POST("/register", a.register)

	g.GET("/logout", a.logout)
}

func (a *UsersController) loginPage(c *gin.Context) {
	html(c, "login.html", "title.login", nil)
}

func (a *UsersController) registerPage(c *gin.Context) {
	html(c, "register.html", "title.register", nil)
}

// login checks the credentials and binds the user to the session.
func (a *UsersController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("bind login form err:", err)
	}

	user, err := a.authService.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, service.ErrInvalidCredentials) {
			result = metrics.ResultInvalid
			logger.Warningf("failed login for %q, IP: %s", form.Email, getRemoteIp(c))
			flash(c, session.FlashError, "flash.invalidCredentials")
		} else {
			logger.Warning("login err:", err)
			flash(c, session.FlashErrorMsg, "flash.internal")
		}
		metrics.LoginsTotal.WithLabelValues(result).Inc()
		redirect(c, loginPath)
		return
	}

	if err := a.authService.StartSession(c, user); err != nil {
		logger.Warning("Unable to save session:", err)
		flash(c, session.FlashErrorMsg, "flash.internal")
		redirect(c, loginPath)
		return
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	logger.Infof("%s logged in successfully, IP: %s", user.Email, getRemoteIp(c))
	redirect(c, "/myadmin")
}

// register creates an account. Validation failures re-render the form with
// the submitted values.
func (a *UsersController) register(c *gin.Context) {
	var form entity.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("bind register form err:", err)
	}

	_, err := a.authService.Register(c.Request.Context(), form)
	var verr *service.ValidationError
	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		flash(c, session.FlashSuccess, "flash.registered")
		redirect(c, loginPath)
	case errors.As(err, &verr):
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		html(c, "register.html", "title.register", gin.H{
			"errors":    fieldMessages(c, verr.Fields),
			"name":      form.Name,
			"email":     form.Email,
			"password":  form.Password,
			"password2": form.Password2,
		})
	case errors.Is(err, service.ErrDuplicateEmail):
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultDuplicate).Inc()
		flash(c, session.FlashErrorMsg, "flash.emailRegistered")
		redirect(c, "/users/register")
	default:
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		logger.Warning("register err:", err)
		flash(c, session.FlashErrorMsg, "flash.internal")
		redirect(c, "/users/register")
	}
}

// logout drops the identity but keeps the session so the flash survives.
func (a *UsersController) logout(c *gin.Context) {
	if err := a.authService.Logout(c); err != nil {
		logger.Warning("Unable to save session after logout:", err)
	}
	flash(c, session.FlashSuccess, "flash.loggedOut")
	redirect(c, loginPath)
}
