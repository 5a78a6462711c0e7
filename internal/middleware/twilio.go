package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	twilioclient "github.com/twilio/twilio-go/client"
)

// TwilioParamsKey is the echo context key holding the verified webhook form.
const TwilioParamsKey = "twilioParams"

// TwilioAuth verifies the X-Twilio-Signature header of webhook requests.
// baseURL, when set, is the public origin Twilio was configured with; it
// takes precedence over forwarded headers and the request host.
func TwilioAuth(authToken, baseURL string) echo.MiddlewareFunc {
	validator := twilioclient.NewRequestValidator(authToken)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authToken == "" {
				return c.String(http.StatusInternalServerError, "TWILIO_AUTH_TOKEN not configured")
			}
			form, err := c.FormParams()
			if err != nil {
				return c.String(http.StatusBadRequest, "Failed to parse form data")
			}
			params := make(map[string]string, len(form))
			for k, v := range form {
				if len(v) > 0 {
					params[k] = v[0]
				}
			}

			r := c.Request()
			signature := r.Header.Get("X-Twilio-Signature")
			if signature == "" || !validator.Validate(PublicURL(r, baseURL, r.URL.RequestURI()), params, signature) {
				return c.String(http.StatusUnauthorized, "Invalid Twilio signature")
			}
			c.Set(TwilioParamsKey, params)
			return next(c)
		}
	}
}

// TwilioParams returns the form verified by TwilioAuth.
func TwilioParams(c echo.Context) map[string]string {
	p, _ := c.Get(TwilioParamsKey).(map[string]string)
	return p
}

// PublicURL builds the absolute URL Twilio sees for path.
// Priority: baseURL > X-Forwarded-* headers > request host.
func PublicURL(r *http.Request, baseURL, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/") + path
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	host := r.Header.Get("X-Forwarded-Host")
	if proto != "" && host != "" {
		return proto + "://" + host + path
	}
	proto = "https"
	if strings.HasPrefix(r.Host, "localhost") || strings.HasPrefix(r.Host, "127.0.0.1") {
		proto = "http"
	}
	return proto + "://" + r.Host + path
}
