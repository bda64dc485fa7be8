package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// SanitizeFields strips markup from the named top-level JSON string fields.
// Other fields, credentials included, pass through byte for byte.
func SanitizeFields(fields ...string) gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid body"})
			return
		}

		var body map[string]json.RawMessage
		if len(buf) == 0 || json.Unmarshal(buf, &body) != nil {
			// Leave malformed bodies for the handler's binder to report.
			restoreBody(c, buf)
			c.Next()
			return
		}

		changed := false
		for _, f := range fields {
			raw, ok := body[f]
			if !ok {
				continue
			}
			var s string
			if json.Unmarshal(raw, &s) != nil {
				continue
			}
			clean := strings.TrimSpace(policy.Sanitize(s))
			if clean == s {
				continue
			}
			enc, _ := json.Marshal(clean)
			body[f] = enc
			changed = true
		}

		if changed {
			buf, _ = json.Marshal(body)
		}
		restoreBody(c, buf)
		c.Next()
	}
}

func restoreBody(c *gin.Context, buf []byte) {
	c.Request.Body = io.NopCloser(bytes.NewReader(buf))
	c.Request.ContentLength = int64(len(buf))
}
