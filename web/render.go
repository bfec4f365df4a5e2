package web

import (
	"html/template"

	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/web/locale"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// htmlRender renders templates with the i18n helper bound to the language of
// the request. Controllers pass the request's translate func as "I18n".
type htmlRender struct {
	template *template.Template
	// load re-parses the templates on every render in debug mode
	load func() (*template.Template, error)
}

func (r *htmlRender) Instance(name string, data any) render.Render {
	tpl := r.template
	if r.load != nil {
		t, err := r.load()
		if err != nil {
			panic(err)
		}
		tpl = t
	}

	if h, ok := data.(gin.H); ok {
		if fn, ok := h["I18n"].(locale.TranslateFunc); ok {
			clone, err := tpl.Clone()
			if err != nil {
				logger.Warning("clone template err:", err)
			} else {
				tpl = clone.Funcs(template.FuncMap{
					"i18n": func(key string, params ...string) string {
						return fn(key, params...)
					},
				})
			}
		}
	}

	return render.HTML{Template: tpl, Name: name, Data: data}
}
