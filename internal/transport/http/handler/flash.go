package handler

import (
	"encoding/base64"
	"strings"

	"github.com/gin-gonic/gin"
)

const flashCookie = "blog_flash"

// Flash is a one-time status message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

func setFlash(c *gin.Context, kind, message string) {
	encoded := base64.URLEncoding.EncodeToString([]byte(kind + "|" + message))
	c.SetCookie(flashCookie, encoded, 60, "/", "", false, true)
}

// popFlash reads and clears the pending flash message, if any.
func popFlash(c *gin.Context) *Flash {
	encoded, err := c.Cookie(flashCookie)
	if err != nil || encoded == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	kind, message, found := strings.Cut(string(decoded), "|")
	if !found {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}
