package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// siteParam reads the comma separated "sites" query parameter. Without it the
// fallback list is used.
func siteParam(c *gin.Context, fallback []string) ([]string, error) {
	raw := c.Query("sites")
	if raw == "" {
		return fallback, nil
	}
	return models.ParseSiteList(raw)
}

func listParam(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
