// Package locale translates flash, validation and page-title messages using
// TOML message files and the client's language preference.
package locale

import (
	"io/fs"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/spu-nas/nasweb/config"
	"github.com/spu-nas/nasweb/logger"
	"golang.org/x/text/language"
)

var i18nBundle *i18n.Bundle

// TranslateFunc is stored in the gin context under "I18n".
type TranslateFunc func(key string, params ...string) string

// InitLocalizer loads every message file under translation/ in i18nFS.
func InitLocalizer(i18nFS fs.FS) error {
	bundle := i18n.NewBundle(language.MustParse("en-US"))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, bundle); err != nil {
		return err
	}
	i18nBundle = bundle
	return nil
}

// Languages lists the tags a message file was loaded for.
func Languages() []string {
	if i18nBundle == nil {
		return nil
	}
	tags := i18nBundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	var sep string = "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}
	return templateData
}

// Translate localizes key with the given localizer. Params take the form
// "name==value". Unknown keys come back unchanged.
func Translate(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// NewLocalizer returns a localizer preferring langs in order, then the
// configured default language.
func NewLocalizer(langs ...string) *i18n.Localizer {
	if i18nBundle == nil {
		return nil
	}
	langs = append(langs, config.GetLang())
	return i18n.NewLocalizer(i18nBundle, langs...)
}

// LocalizerMiddleware picks the language from the "lang" cookie or the
// Accept-Language header and stores a translate function in the context.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var langs []string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			langs = append(langs, cookie.Value)
		}
		if accept := c.GetHeader("Accept-Language"); accept != "" {
			langs = append(langs, accept)
		}

		localizer := NewLocalizer(langs...)
		c.Set("localizer", localizer)
		c.Set("I18n", TranslateFunc(func(key string, params ...string) string {
			return Translate(localizer, key, params...)
		}))
		c.Next()
	}
}

func parseTranslationFiles(i18nFS fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			data, err := fs.ReadFile(i18nFS, path)
			if err != nil {
				return err
			}

			_, err = bundle.ParseMessageFileBytes(data, path)
			return err
		})
}
