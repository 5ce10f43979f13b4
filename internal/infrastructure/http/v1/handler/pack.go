package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jczaplew/gl-js-offline/internal/infrastructure/http/v1/dto"
	"github.com/jczaplew/gl-js-offline/internal/repository/store"
	"github.com/jczaplew/gl-js-offline/internal/usecase"
)

// CreatePack starts a pack download and responds as soon as the provisional
// record is written. Progress and per-tile errors are logged; completion is
// observable through GetPack once sizeBytes turns positive.
func (h *Handler) CreatePack(c *gin.Context) {
	var req dto.CreatePackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, "failed to decode request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	cb := usecase.Callbacks{
		OnProgress: func(p usecase.Progress) {
			h.logger.Debug("download progress", "source", p.Source, "fetched", p.Fetched, "total", p.Total)
		},
		OnError: func(err error) {
			h.logger.Error("download error", "error", err)
		},
		OnDone: func(rec store.PackRecord) {
			h.logger.Info("pack ready", "pack", rec.Name, "bytes", rec.SizeBytes)
		},
	}

	dl, err := h.packs.Create(c.Request.Context(), req.ToParams(), cb)
	if err != nil {
		var verr *usecase.ValidationError
		switch {
		case errors.As(err, &verr):
			h.RespondWithJSON(c, http.StatusBadRequest, verr.Error(), nil)
		case errors.Is(err, usecase.ErrPackExists), errors.Is(err, usecase.ErrDownloadInProgress):
			h.RespondWithJSON(c, http.StatusConflict, err.Error(), nil)
		default:
			h.logger.Error("failed to create pack", "error", err)
			h.RespondWithInternalServerError(c)
		}
		return
	}

	h.RespondWithJSON(c, http.StatusAccepted, "pack download started", dto.CreatePackResponse{
		Name: dl.Pack(),
	})
}

func (h *Handler) Estimate(c *gin.Context) {
	var req dto.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, "failed to decode request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	bytes, err := h.packs.Estimate(req.ToParams())
	if err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "estimated pack size", dto.EstimateResponse{Bytes: bytes})
}

func (h *Handler) ListPacks(c *gin.Context) {
	packs, err := h.packs.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list packs", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "got packs", packs)
}

func (h *Handler) GetPack(c *gin.Context) {
	rec, err := h.packs.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, usecase.ErrPackNotFound) {
			h.RespondWithJSON(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		h.logger.Error("failed to get pack", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "got pack", rec)
}

func (h *Handler) AbortPack(c *gin.Context) {
	if err := h.packs.Abort(c.Param("name")); err != nil {
		h.RespondWithJSON(c, http.StatusNotFound, "no download in progress for this pack", nil)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "pack download aborted", nil)
}

func (h *Handler) DeletePack(c *gin.Context) {
	err := h.packs.DeletePack(c.Request.Context(), c.Param("name"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPackNotFound):
			h.RespondWithJSON(c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, usecase.ErrDownloadInProgress):
			h.RespondWithJSON(c, http.StatusConflict, err.Error(), nil)
		default:
			h.logger.Error("failed to delete pack", "error", err)
			h.RespondWithInternalServerError(c)
		}
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "pack deleted", nil)
}

func (h *Handler) DeleteAll(c *gin.Context) {
	err := h.packs.DeleteAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrDownloadInProgress) {
			h.RespondWithJSON(c, http.StatusConflict, err.Error(), nil)
			return
		}
		h.logger.Error("failed to delete packs", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "all packs deleted", nil)
}
