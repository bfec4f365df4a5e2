package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/spu-nas/nasweb/config"
	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/web/entity"
	"github.com/spu-nas/nasweb/web/locale"
	"github.com/spu-nas/nasweb/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// flash queues the translated message key for the next rendered page.
func flash(c *gin.Context, kind session.FlashKind, key string) {
	if err := session.AddFlash(c, kind, I18nWeb(c, key)); err != nil {
		logger.Warning("Unable to save flash message:", err)
	}
}

// redirect sends the client to path with 303 so that a PUT, DELETE or POST
// is followed by a GET.
func redirect(c *gin.Context, path string) {
	c.Redirect(http.StatusSeeOther, path)
}

// html renders a template with the pending flash messages, the current user
// and the translated page title added to data.
func html(c *gin.Context, name string, title string, data gin.H) {
	htmlStatus(c, http.StatusOK, name, title, data)
}

func htmlStatus(c *gin.Context, code int, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = I18nWeb(c, title)
	data["request_uri"] = c.Request.RequestURI

	flashes, err := session.DrainFlashes(c)
	if err != nil {
		logger.Warning("Unable to drain flash messages:", err)
	}
	for kind, msgs := range flashes {
		data[string(kind)] = msgs
	}
	if fn, ok := c.Get("I18n"); ok {
		data["I18n"] = fn
	}
	if user, ok := c.Get("user"); ok {
		data["user"] = user
	} else {
		data["user"] = nil
	}
	c.HTML(code, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver":  config.GetVersion(),
		"app_name": config.GetName(),
		"langs":    locale.Languages(),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

// isAjax checks if the request is an AJAX request.
func isAjax(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}
