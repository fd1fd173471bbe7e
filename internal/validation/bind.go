package validation

import (
	"github.com/gin-gonic/gin"
)

// BindJSON decodes the JSON body into out. Field validation is left to the service
// so that every entry point applies the same rules.
func BindJSON(c *gin.Context, out interface{}) error {
	return c.ShouldBindJSON(out)
}
