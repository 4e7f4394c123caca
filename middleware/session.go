package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/services"
)

// SessionHeader carries the anonymous cart token
const SessionHeader = "X-Session-Id"

// ResolveCartOwner decides once per request whose cart is being used. A signed-in
// customer owns their cart; otherwise the X-Session-Id token does. A request with
// neither gets a fresh token, echoed back in the response header for the client to keep.
func ResolveCartOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if kind, id, ok := principal(c); ok && kind == services.KindCustomer {
			c.Set("cart_owner", services.CartOwner(services.CustomerOwner(id)))
			c.Next()
			return
		}

		token := c.GetHeader(SessionHeader)
		if !services.ValidSessionToken(token) {
			token = services.NewSessionToken()
		}
		c.Header(SessionHeader, token)
		c.Set("cart_owner", services.CartOwner(services.AnonymousOwner(token)))
		c.Next()
	}
}

// GetCartOwner returns the owner stored by ResolveCartOwner
func GetCartOwner(c *gin.Context) (services.CartOwner, bool) {
	v, ok := c.Get("cart_owner")
	if !ok {
		return nil, false
	}
	owner, ok := v.(services.CartOwner)
	return owner, ok
}
