package middleware

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
)

// ErrorHandler renders the last error pushed onto the gin context as a
// JSON envelope, with the HTTP status derived from the error's sentinel.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
	}
}
