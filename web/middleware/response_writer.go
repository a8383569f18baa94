package middleware

import (
	"bytes"

	"github.com/gin-gonic/gin"
)

// responseWriter keeps a copy of the first limit bytes written.
type responseWriter struct {
	gin.ResponseWriter
	body  *bytes.Buffer
	limit int
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if room := rw.limit - rw.body.Len(); room > 0 {
		rw.body.Write(b[:min(room, len(b))])
	}
	return rw.ResponseWriter.Write(b)
}
