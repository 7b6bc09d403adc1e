package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/internal/offline"
	appErrors "github.com/charlesng35/dabifac/pkg/errors"
	"github.com/charlesng35/dabifac/pkg/response"
)

// Response headers recomputed by the server for every reply.
var skippedAssetHeaders = map[string]struct{}{
	"Connection":        {},
	"Content-Length":    {},
	"Keep-Alive":        {},
	"Transfer-Encoding": {},
}

// AssetHandler answers requests under the mount path from the asset cache.
type AssetHandler struct {
	manager   AssetManager
	mountPath string
	base      *url.URL
	index     string
}

// NewAssetHandler maps mountPath onto the directory of workerURL. Requests for a directory
// are served the index document.
func NewAssetHandler(manager AssetManager, mountPath, workerURL, index string) (*AssetHandler, error) {
	if manager == nil {
		return nil, errors.New("asset handler: manager is required")
	}
	base, err := offline.BaseURL(workerURL)
	if err != nil {
		return nil, err
	}
	mountPath = "/" + strings.Trim(strings.TrimSpace(mountPath), "/")
	if mountPath != "/" {
		mountPath += "/"
	}
	index = strings.TrimPrefix(strings.TrimSpace(index), "/")
	if index == "" {
		index = "index.html"
	}
	return &AssetHandler{manager: manager, mountPath: mountPath, base: base, index: index}, nil
}

// MountPath returns the normalised path prefix served by the handler.
func (h *AssetHandler) MountPath() string {
	return h.mountPath
}

// NoRoute serves GET and HEAD requests under the mount path and hands everything else
// to fallback.
func (h *AssetHandler) NoRoute(fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			fallback(c)
			return
		}

		path := c.Request.URL.Path
		if path+"/" == h.mountPath {
			c.Redirect(http.StatusMovedPermanently, h.mountPath)
			return
		}
		if !strings.HasPrefix(path, h.mountPath) {
			fallback(c)
			return
		}
		h.Serve(c)
	}
}

// Serve answers one intercepted request.
func (h *AssetHandler) Serve(c *gin.Context) {
	target, ok := h.upstreamURL(c.Request.URL)
	if !ok {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	resp, err := h.manager.HandleRequest(c.Request.Context(), offline.Request{
		Method: c.Request.Method,
		URL:    target,
		Header: c.Request.Header.Clone(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	header := c.Writer.Header()
	for key, values := range resp.Header {
		if _, skip := skippedAssetHeaders[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		header[key] = append([]string(nil), values...)
	}
	c.Status(resp.Status)
	if c.Request.Method == http.MethodHead {
		return
	}
	_, _ = c.Writer.Write(resp.Body)
}

func (h *AssetHandler) upstreamURL(requested *url.URL) (string, bool) {
	rel := strings.TrimPrefix(requested.Path, h.mountPath)
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += h.index
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return "", false
		}
	}

	target := h.base.JoinPath(rel)
	target.RawQuery = requested.RawQuery
	return target.String(), true
}
