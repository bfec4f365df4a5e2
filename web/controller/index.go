package controller

import (
	"errors"
	"net/http"

	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/util/metrics"
	"github.com/spu-nas/nasweb/web/entity"
	"github.com/spu-nas/nasweb/web/service"
	"github.com/spu-nas/nasweb/web/session"

	"github.com/gin-gonic/gin"
)

// IndexController serves the public pages and accepts the contact form.
type IndexController struct {
	BaseController

	subscriberService service.SubscriberService
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.page("index.html", "title.home"))
	g.GET("/about", a.page("about.html", "title.about"))
	g.GET("/departments", a.page("departments.html", "title.departments"))
	g.GET("/aps", a.page("aps.html", "title.aps"))
	g.GET("/staff", a.page("staff.html", "title.staff"))
	g.GET("/students", a.page("students.html", "title.students"))
	g.GET("/contact", a.page("contact.html", "title.contact"))

	g.POST("/", a.submit)
}

// page renders a static informational template.
func (a *IndexController) page(name string, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		html(c, name, title, nil)
	}
}

// submit stores a contact-form submission. Invalid forms are rendered again
// with every field error and the values the visitor typed.
func (a *IndexController) submit(c *gin.Context) {
	var form entity.SubscriberForm
	if err := c.ShouldBind(&form); err != nil {
		logger.Warning("bind contact form err:", err)
	}

	_, err := a.subscriberService.Submit(c.Request.Context(), form)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		metrics.SubmissionsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		html(c, "contact.html", "title.contact", gin.H{
			"errors":    fieldMessages(c, verr.Fields),
			"firstName": form.FirstName,
			"lastName":  form.LastName,
			"email":     form.Email,
		})
		return
	} else if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.ResultError).Inc()
		logger.Warning("submit contact form err:", err)
		flash(c, session.FlashErrorMsg, "flash.internal")
		redirect(c, "/contact")
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	logger.Infof("contact form submitted from %s", getRemoteIp(c))
	flash(c, session.FlashSuccess, "flash.submitted")
	redirect(c, "/contact")
}

// fieldMessages translates validation errors for the form templates.
func fieldMessages(c *gin.Context, fields []entity.FieldError) []gin.H {
	out := make([]gin.H, 0, len(fields))
	for _, f := range fields {
		out = append(out, gin.H{"field": f.Field, "text": I18nWeb(c, f.Key)})
	}
	return out
}

// NotFound renders the 404 page for unknown routes.
func NotFound(c *gin.Context) {
	htmlStatus(c, http.StatusNotFound, "404.html", "title.notFound", nil)
}
