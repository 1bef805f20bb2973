package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/domain/errors"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"
)

// minCompressSize is the smallest response body worth compressing.
const minCompressSize = 1024

type gzipBody struct {
	io.Reader
	gz   *gzip.Reader
	body io.Closer
}

func (b *gzipBody) Close() error {
	gzErr := b.gz.Close()
	if err := b.body.Close(); err != nil {
		return err
	}
	return gzErr
}

// GzipRequestDecompress transparently inflates gzip encoded request bodies.
func GzipRequestDecompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !strings.Contains(strings.ToLower(ctx.GetHeader("Content-Encoding")), "gzip") {
			ctx.Next()
			return
		}
		gr, err := gzip.NewReader(ctx.Request.Body)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": errors.ErrInvalidGzipRequest.Error()})
			return
		}
		ctx.Request.Body = &gzipBody{Reader: gr, gz: gr, body: ctx.Request.Body}
		ctx.Request.Header.Del("Content-Encoding")
		ctx.Request.Header.Del("Content-Length")
		ctx.Request.ContentLength = -1
		ctx.Next()
	}
}

// bufferedWriter holds the response body until the handler chain returns so
// the compression decision can see the final size and content type.
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) { return w.buf.Write(data) }

func (w *bufferedWriter) WriteString(s string) (int, error) { return w.buf.WriteString(s) }

// GzipResponseCompress gzips responses of at least minCompressSize bytes for
// clients that accept it.
func GzipResponseCompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead ||
			!strings.Contains(strings.ToLower(ctx.GetHeader("Accept-Encoding")), "gzip") {
			ctx.Next()
			return
		}

		addVary(ctx.Writer.Header())
		original := ctx.Writer
		bw := &bufferedWriter{ResponseWriter: original}
		ctx.Writer = bw

		ctx.Next()

		ctx.Writer = original
		body := bw.buf.Bytes()
		if len(body) == 0 {
			return
		}
		if len(body) < minCompressSize || original.Written() || !mayCompress(original.Status(), original.Header()) {
			if _, err := original.Write(body); err != nil {
				_ = ctx.Error(err)
			}
			return
		}

		original.Header().Del("Content-Length")
		original.Header().Set("Content-Encoding", "gzip")
		gw := gzip.NewWriter(original)
		if _, err := gw.Write(body); err != nil {
			_ = ctx.Error(errors.ErrGzipCompressionFailed)
		}
		if err := gw.Close(); err != nil {
			_ = ctx.Error(errors.ErrGzipCompressionFailed)
		}
	}
}

func addVary(h http.Header) {
	vary := h.Get("Vary")
	switch {
	case vary == "":
		h.Set("Vary", "Accept-Encoding")
	case !strings.Contains(vary, "Accept-Encoding"):
		h.Set("Vary", vary+", Accept-Encoding")
	}
}

func mayCompress(status int, h http.Header) bool {
	if status == http.StatusNoContent || status == http.StatusNotModified || status == http.StatusPartialContent {
		return false
	}
	if status >= 300 && status < 400 {
		return false
	}
	if h.Get("Content-Encoding") != "" {
		return false
	}
	return isCompressibleContentType(h.Get("Content-Type"))
}

func isCompressibleContentType(ct string) bool {
	lower := strings.ToLower(ct)
	if lower == "" || strings.HasPrefix(lower, "text/event-stream") {
		return false
	}
	for _, prefix := range []string{"application/json", "application/javascript", "application/xml", "text/"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// RequestLogger writes one structured log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		entry := log.WithFields(log.Fields{
			"method":  ctx.Request.Method,
			"path":    ctx.FullPath(),
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  ctx.ClientIP(),
		})
		if owner, ok := ctx.Get(principalKey); ok {
			entry = entry.WithField("owner", owner)
		}
		switch status := ctx.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}
