// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/NEBULA-33/nebula-1/internal/i18n"
)

var languageMatcher = language.NewMatcher([]language.Tag{
	language.Turkish,
	language.English,
})

// I18nMiddleware picks tr or en from Accept-Language. A "lang" query
// parameter wins over the header.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := i18n.DefaultLanguage()

		if q := strings.TrimSpace(c.Query("lang")); q != "" {
			lang = matchLanguage(q, lang)
		} else if header := c.GetHeader("Accept-Language"); header != "" {
			lang = matchLanguage(header, lang)
		}

		c.Set("lang", lang)
		c.Next()
	}
}

func matchLanguage(accept, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, index, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	if index == 0 {
		return "tr"
	}
	return "en"
}
