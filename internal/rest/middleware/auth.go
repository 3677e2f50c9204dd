package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/security"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// MerchantAuthMiddleware authenticates merchant API requests using the
// x-api-key and x-secret-key headers. The resolved merchant id and key mode
// are set on the request context for downstream handlers.
func MerchantAuthMiddleware(merchantRepo merchant.Repository, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(types.HeaderAPIKey)
		secretKey := c.GetHeader(types.HeaderSecretKey)

		if apiKey == "" || secretKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing API credentials"})
			c.Abort()
			return
		}

		m, mode, err := merchantRepo.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			if !ierr.IsNotFound(err) {
				logger.Errorw("merchant lookup failed", "error", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API credentials"})
			c.Abort()
			return
		}

		keys := m.KeysFor(mode)
		if !security.SecureCompare(keys.SecretKey, secretKey) {
			logger.Debugw("secret key mismatch", "merchant_id", m.ID)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API credentials"})
			c.Abort()
			return
		}

		if m.Status == types.MerchantStatusSuspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Merchant account is suspended"})
			c.Abort()
			return
		}

		ctx := types.SetMerchantID(c.Request.Context(), m.ID)
		ctx = types.SetKeyMode(ctx, mode)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
