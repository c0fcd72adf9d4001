package api

import (
	"net/http"

	"clothing-store/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// documentID reads the id from the path, falling back to the id query
// parameter.
func documentID(c *gin.Context) (string, error) {
	if id := c.Param("id"); id != "" {
		return id, nil
	}
	if id := c.Query("id"); id != "" {
		return id, nil
	}
	return "", apperrors.New(apperrors.CodeValidation, "document id is required")
}

// listDocuments returns the whole collection, or a single document when an
// id query parameter is given.
func (h *Handler) listDocuments(c *gin.Context) {
	if c.Query("id") != "" {
		h.getDocument(c)
		return
	}

	docs, err := h.catalog.List(c.Request.Context(), c.Param("collection"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) getDocument(c *gin.Context) {
	id, err := documentID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	doc, err := h.catalog.Get(c.Request.Context(), c.Param("collection"), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// createDocument answers 201 for a new document and 200 when an earlier
// request with the same Idempotency-Key already created it.
func (h *Handler) createDocument(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.CodeValidation, err, "invalid request body"))
		return
	}

	res, err := h.catalog.Create(c.Request.Context(), c.Param("collection"), payload, c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if res.Replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) updateDocument(c *gin.Context) {
	id, err := documentID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.CodeValidation, err, "invalid request body"))
		return
	}

	if err := h.catalog.Update(c.Request.Context(), c.Param("collection"), id, patch); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated_id": id})
}

func (h *Handler) deleteDocument(c *gin.Context) {
	id, err := documentID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), c.Param("collection"), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_id": id})
}
