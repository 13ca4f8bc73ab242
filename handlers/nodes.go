package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/idelsangithub/node-tree-api/logging"
	"github.com/idelsangithub/node-tree-api/models"
	"github.com/idelsangithub/node-tree-api/repository"
	"github.com/idelsangithub/node-tree-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerLocale   = "Accept-Language"
	headerTimezone = "X-Timezone"

	healthTimeout = 2 * time.Second
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	nodes          *service.NodeService
	defaultPerPage int
	logger         *zap.Logger
}

// NewNodeHandler creates a new NodeHandler instance
func NewNodeHandler(nodes *service.NodeService, defaultPerPage int, logger *zap.Logger) *NodeHandler {
	if defaultPerPage < 1 {
		defaultPerPage = 15
	}
	return &NodeHandler{
		nodes:          nodes,
		defaultPerPage: defaultPerPage,
		logger:         logging.OrNop(logger),
	}
}

// CreateNode creates a new node, as a root when parent_id is omitted
func (h *NodeHandler) CreateNode(c *gin.Context) {
	var req models.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondMessage(c, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}

	if err := req.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	node, err := h.nodes.CreateNode(c.Request.Context(), req.ParentID)
	if err != nil {
		if errors.Is(err, repository.ErrParentNotFound) {
			respondMessage(c, http.StatusUnprocessableEntity, msgInvalidParent)
			return
		}
		h.logger.Error("error creating node", zap.Error(err), zap.String("request_id", requestID(c)))
		respondMessage(c, http.StatusInternalServerError, msgCreateFailed)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": msgNodeCreated,
		"node_id": node.ID,
	})
}

// ListRoots returns a page of root nodes
func (h *NodeHandler) ListRoots(c *gin.Context) {
	rc, err := requestContext(c)
	if err != nil {
		respondInvalid(c, err)
		return
	}

	query := models.ListQuery{Page: 1, PerPage: h.defaultPerPage}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondMessage(c, http.StatusUnprocessableEntity, msgInvalidData)
		return
	}
	if err := query.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	page, err := h.nodes.ListRoots(c.Request.Context(), rc, query.Page, query.PerPage)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			respondInvalid(c, err)
			return
		}
		h.logger.Error("error listing roots", zap.Error(err), zap.String("request_id", requestID(c)))
		respondMessage(c, http.StatusInternalServerError, msgListRootsFailed)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ListChildren returns a page of the descendants of a node up to the
// requested depth
func (h *NodeHandler) ListChildren(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		respondMessage(c, http.StatusNotFound, msgParentNotFound)
		return
	}

	rc, err := requestContext(c)
	if err != nil {
		respondInvalid(c, err)
		return
	}

	query := models.ListChildrenQuery{
		ListQuery: models.ListQuery{Page: 1, PerPage: h.defaultPerPage},
		Depth:     1,
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondMessage(c, http.StatusUnprocessableEntity, msgInvalidData)
		return
	}
	if err := query.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	page, err := h.nodes.ListChildren(c.Request.Context(), rc, id, query.Depth, query.Page, query.PerPage)
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.Is(err, repository.ErrNodeNotFound):
			respondMessage(c, http.StatusNotFound, msgParentNotFound)
		case errors.As(err, &validationErr):
			respondInvalid(c, err)
		default:
			h.logger.Error("error listing children", zap.Error(err), zap.Int64("node_id", id), zap.String("request_id", requestID(c)))
			respondMessage(c, http.StatusInternalServerError, msgListChildrenFailed)
		}
		return
	}

	c.JSON(http.StatusOK, page)
}

// DeleteNode deletes a node that has no children
func (h *NodeHandler) DeleteNode(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		respondMessage(c, http.StatusNotFound, msgNodeNotFound)
		return
	}

	outcome, err := h.nodes.DeleteNode(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("error deleting node", zap.Error(err), zap.Int64("node_id", id), zap.String("request_id", requestID(c)))
		respondMessage(c, http.StatusInternalServerError, msgDeleteFailed)
		return
	}

	switch outcome {
	case service.Deleted:
		respondMessage(c, http.StatusOK, msgNodeDeleted)
	case service.HasChildrenConflict:
		respondMessage(c, http.StatusConflict, msgHasChildren)
	default:
		respondMessage(c, http.StatusNotFound, msgNodeNotFound)
	}
}

// PutTranslation stores the title of a node for the locale in the path
func (h *NodeHandler) PutTranslation(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		respondMessage(c, http.StatusNotFound, msgNodeNotFound)
		return
	}

	params := models.TranslationParams{Locale: strings.ToLower(c.Param("locale"))}
	if err := params.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	var req models.PutTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	if err := h.nodes.SetTranslation(c.Request.Context(), id, params.Locale, req.Title); err != nil {
		if errors.Is(err, repository.ErrNodeNotFound) {
			respondMessage(c, http.StatusNotFound, msgNodeNotFound)
			return
		}
		h.logger.Error("error saving translation", zap.Error(err), zap.Int64("node_id", id), zap.String("request_id", requestID(c)))
		respondMessage(c, http.StatusInternalServerError, msgTranslationFailed)
		return
	}

	respondMessage(c, http.StatusOK, msgTranslationSaved)
}

// Health reports whether the service can reach its store
func (h *NodeHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.nodes.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// nodeID parses the :id path parameter
func nodeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func requestContext(c *gin.Context) (service.RequestContext, error) {
	return service.NewRequestContext(c.GetHeader(headerLocale), c.GetHeader(headerTimezone))
}
