// Package controller provides the HTTP handlers of the nasweb site: the public
// pages and contact form, user login and registration, and the myadmin area.
package controller

import (
	"net/http"

	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/web/locale"
	"github.com/spu-nas/nasweb/web/session"

	"github.com/gin-gonic/gin"
)

// loginPath is where unauthenticated visitors are sent.
const loginPath = "/users/login"

// BaseController provides common functionality for all controllers, including authentication checks.
type BaseController struct{}

// checkLogin is a middleware that stops unauthenticated requests before the
// handler runs. Browsers are redirected to the login page with a flash,
// XHR callers get a 401 JSON message.
func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "flash.notAuthorized"))
		} else {
			flash(c, session.FlashErrorMsg, "flash.notAuthorized")
			c.Redirect(http.StatusFound, loginPath)
		}
		c.Abort()
	} else {
		c.Next()
	}
}

// I18nWeb translates key with the localizer picked for this request.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	anyfunc, funcExists := c.Get("I18n")
	if !funcExists {
		logger.Warning("I18n function not exists in gin context!")
		return name
	}
	i18nFunc, _ := anyfunc.(locale.TranslateFunc)
	if i18nFunc == nil {
		return name
	}
	return i18nFunc(name, params...)
}
