package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/web/entity"
	"github.com/spu-nas/nasweb/web/service"
	"github.com/spu-nas/nasweb/web/session"

	"github.com/gin-gonic/gin"
)

const adminPath = "/myadmin"

const (
	defaultLogCount = 100
	maxLogCount     = 1000
)

// logLevels are the severities offered by the log view, most severe first.
var logLevels = []string{"ERROR", "WARNING", "NOTICE", "INFO", "DEBUG"}

// AdminController serves the myadmin area where logged-in users manage subscribers.
type AdminController struct {
	BaseController

	subscriberService service.SubscriberService
}

// NewAdminController creates a new AdminController and initializes its routes.
func NewAdminController(g *gin.RouterGroup) *AdminController {
	a := &AdminController{}
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	g = g.Group(adminPath)
	g.Use(a.checkLogin)

	g.GET("", a.list)
	g.GET("/edit/:id", a.edit)
	g.PUT("/edit/:id", a.update)
	g.DELETE("/edit/:id", a.delete)
	g.GET("/logs", a.logs)
}

func (a *AdminController) list(c *gin.Context) {
	subscribers, err := a.subscriberService.List(c.Request.Context())
	if err != nil {
		logger.Warning("list subscribers err:", err)
		flash(c, session.FlashErrorMsg, "flash.internal")
	}
	html(c, "subscribers.html", "title.admin", gin.H{
		"subscribers": subscribers,
	})
}

func (a *AdminController) edit(c *gin.Context) {
	subscriber, err := a.subscriberService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.failed(c, "get", err)
		return
	}
	html(c, "edit.html", "title.edit", gin.H{
		"subscriber": subscriber,
	})
}

func (a *AdminController) update(c *gin.Context) {
	var form entity.SubscriberForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("bind subscriber form err:", err)
	}

	if _, err := a.subscriberService.Update(c.Request.Context(), c.Param("id"), form); err != nil {
		a.failed(c, "update", err)
		return
	}
	flash(c, session.FlashSuccess, "flash.subscriberUpdated")
	redirect(c, adminPath)
}

func (a *AdminController) delete(c *gin.Context) {
	if err := a.subscriberService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		a.failed(c, "delete", err)
		return
	}
	flash(c, session.FlashSuccess, "flash.subscriberRemoved")
	redirect(c, adminPath)
}

// logs shows the newest buffered log lines at or above ?level, up to ?count.
func (a *AdminController) logs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(defaultLogCount)))
	if err != nil || count < 1 {
		count = defaultLogCount
	}
	count = min(count, maxLogCount)
	level := c.DefaultQuery("level", "INFO")

	lines := logger.GetLogs(count, level)
	if isAjax(c) {
		c.JSON(http.StatusOK, entity.Msg{Success: true, Obj: lines})
		return
	}
	html(c, "logs.html", "title.logs", gin.H{
		"logs":   lines,
		"level":  level,
		"levels": logLevels,
		"count":  count,
	})
}

// failed sends the admin back to the list with a flash describing err.
func (a *AdminController) failed(c *gin.Context, op string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		flash(c, session.FlashErrorMsg, "flash.subscriberNotFound")
	} else {
		logger.Warningf("%s subscriber %s err: %v", op, c.Param("id"), err)
		flash(c, session.FlashErrorMsg, "flash.internal")
	}
	redirect(c, adminPath)
}
