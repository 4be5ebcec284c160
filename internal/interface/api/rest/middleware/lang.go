package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxLang = "lang"

// LangMiddleware resolves the request language from the lang query param or
// Accept-Language header against the configured locales. Purely
// informational; nothing downstream depends on it.
func LangMiddleware(locales []string, defaultLocale string) gin.HandlerFunc {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	known := make(map[string]struct{}, len(locales))
	for _, l := range locales {
		known[l] = struct{}{}
	}

	return func(c *gin.Context) {
		lang := c.Query("lang")
		if lang == "" {
			lang = strings.Split(c.GetHeader("Accept-Language"), ",")[0]
			lang = strings.TrimSpace(strings.SplitN(lang, ";", 2)[0])
		}
		if _, ok := known[lang]; !ok {
			lang = defaultLocale
		}

		c.Set(CtxLang, lang)
		c.Next()
	}
}
