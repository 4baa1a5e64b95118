package automation

import "regexp"

type MessageTemplate struct {
	Type    TemplateType
	Subject string
	Body    string
}

type RenderedMessage struct {
	Subject string
	Body    string
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// RenderTemplate substitutes every {{key}} token from vars. Unresolved
// keys render as empty string and are reported back so callers can log
// them; a degraded message is preferred over blocking delivery.
func RenderTemplate(tpl MessageTemplate, vars map[string]string) (RenderedMessage, []string) {
	var missing []string
	replace := func(s string) string {
		return tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
			key := tokenPattern.FindStringSubmatch(token)[1]
			val, ok := vars[key]
			if !ok {
				missing = append(missing, key)
				return ""
			}
			return val
		})
	}

	return RenderedMessage{
		Subject: replace(tpl.Subject),
		Body:    replace(tpl.Body),
	}, missing
}
