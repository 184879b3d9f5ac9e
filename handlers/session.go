package handlers

import "github.com/gin-gonic/gin"

// defaultSessionID is used when a request carries no session header
const defaultSessionID = "default"

// sessionID resolves the caller's session from the X-Session-ID header
func sessionID(c *gin.Context) string {
	if id := c.GetHeader("X-Session-ID"); id != "" {
		return id
	}
	return defaultSessionID
}
