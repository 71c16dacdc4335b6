package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/luma/chatd/dispatch"
	"github.com/luma/chatd/model"
)

const contentTypeJSON = "application/json; charset=utf-8"

type stateHandlers struct {
	dispatcher *dispatch.Dispatcher
}

func (h *stateHandlers) snapshot(c *gin.Context) {
	data, ok := h.load(c)
	if !ok {
		return
	}

	c.Data(http.StatusOK, contentTypeJSON, data)
}

func (h *stateHandlers) channel(c *gin.Context) {
	h.lookup(c, "channel", "channels", "name", c.Param("name"))
}

func (h *stateHandlers) user(c *gin.Context) {
	h.lookup(c, "user", "users", "nickname", c.Param("nickname"))
}

// lookup answers with the first element of the snapshot array list whose
// field equals value. Names are validated first, which also keeps them
// safe to embed in the query.
func (h *stateHandlers) lookup(c *gin.Context, kind, list, field, value string) {
	if !model.IsValidName(value) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no such %s", kind)})
		return
	}

	data, ok := h.load(c)
	if !ok {
		return
	}

	result := gjson.GetBytes(data, fmt.Sprintf(`%s.#(%s=="%s")`, list, field, value))
	if !result.Exists() {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no such %s", kind)})
		return
	}

	c.Data(http.StatusOK, contentTypeJSON, []byte(result.Raw))
}

func (h *stateHandlers) load(c *gin.Context) ([]byte, bool) {
	data, err := h.dispatcher.Snapshot()
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to snapshot state"})

		return nil, false
	}

	return data, true
}
