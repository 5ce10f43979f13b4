package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jczaplew/gl-js-offline/internal/usecase"
)

// Tile serves stored tile bytes for the rendering layer. The cache
// directives captured at download time travel back as response headers.
func (h *Handler) Tile(c *gin.Context) {
	source := c.Param("source")
	strZ := c.Param("z")
	strX := c.Param("x")
	strY := c.Param("y")

	z, err := strconv.Atoi(strZ)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "z should be integer",
		})
		return
	}

	x, err := strconv.Atoi(strX)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "x should be integer",
		})
		return
	}

	y, err := strconv.Atoi(strY)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "y should be integer",
		})
		return
	}

	rec, err := h.packs.Tile(c.Request.Context(), z, x, y, source)
	if err != nil {
		if errors.Is(err, usecase.ErrTileNotFound) {
			h.RespondWithJSON(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		h.logger.Error("failed to get tile", "z", z, "x", x, "y", y, "source", source, "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	if rec.CacheControl != "" {
		c.Header("Cache-Control", rec.CacheControl)
	}
	if rec.Expires != "" {
		c.Header("Expires", rec.Expires)
	}

	c.Data(http.StatusOK, "application/octet-stream", rec.Data)
}
