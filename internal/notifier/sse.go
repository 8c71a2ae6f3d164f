package notifier

import (
	"io"
	"net/http"

	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/gin-gonic/gin"
)

const subscriberBuffer = 64

// StreamHandler serves hub events as Server-Sent Events. Only events for the
// caller's merchant are written when a merchant is known.
func StreamHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID := auth.GetMerchantID(c.Request.Context())

		events, cancel := hub.Subscribe(subscriberBuffer)
		defer cancel()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Status(http.StatusOK)

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case ev, ok := <-events:
				if !ok {
					return false
				}
				if merchantID != "" && ev.MerchantID != "" && ev.MerchantID != merchantID {
					return true
				}
				c.SSEvent("stock", ev)
				return true
			}
		})
	}
}
