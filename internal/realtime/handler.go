package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StreamHandler serves GET /events as an SSE stream for the authenticated
// user. The connection lives until the client goes away.
func StreamHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
			return
		}

		client := hub.AddClient(userID)
		defer hub.RemoveClient(client)

		fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
		flusher.Flush()

		for {
			select {
			case msg, open := <-client.Outbound:
				if !open {
					return
				}
				data, err := json.Marshal(msg.Data)
				if err != nil {
					continue
				}
				fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", msg.Event, data)
				flusher.Flush()
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}
