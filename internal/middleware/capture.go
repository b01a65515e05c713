package middleware

import (
	"bytes"
	"net/http"
)

// captureWriter records status and up to limit body bytes while forwarding
// everything to the client.  limit <= 0 means unbounded.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	size      int64
	limit     int64
	truncated bool
}

func newCaptureWriter(w http.ResponseWriter, limit int64) *captureWriter {
	return &captureWriter{ResponseWriter: w, status: http.StatusOK, limit: limit}
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	switch {
	case cw.limit <= 0:
		cw.buf.Write(b)
	case cw.size < cw.limit:
		remain := cw.limit - cw.size
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
			cw.truncated = true
		}
	default:
		cw.truncated = true
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}
