package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	data := fullURL
	for _, k := range keys {
		data += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func serve(t *testing.T, token, baseURL, signature string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.POST("/twilio/voice", func(c echo.Context) error {
		return c.String(http.StatusOK, TwilioParams(c)["CallSid"])
	}, TwilioAuth(token, baseURL))

	req := httptest.NewRequest(http.MethodPost, "/twilio/voice", strings.NewReader(form.Encode()))
	req.Host = "calls.example.com"
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTwilioAuth(t *testing.T) {
	form := url.Values{"CallSid": {"CA123"}, "From": {"+15550001234"}}

	rec := serve(t, "secret", "", sign("secret", "https://calls.example.com/twilio/voice", form), form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CA123", rec.Body.String())

	rec = serve(t, "secret", "https://public.example.org/", sign("secret", "https://public.example.org/twilio/voice", form), form)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, "secret", "", "bogus", form)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, "secret", "", "", form)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, "", "", "anything", form)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPublicURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/x", nil)
	r.Host = "localhost:3001"
	assert.Equal(t, "http://localhost:3001/twilio/voice", PublicURL(r, "", "twilio/voice"))

	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "abc.ngrok.app")
	assert.Equal(t, "https://abc.ngrok.app/twilio/voice", PublicURL(r, "", "/twilio/voice"))
}
