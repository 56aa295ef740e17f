package main

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
)

// respondError maps the model error taxonomy onto HTTP statuses. Anything
// unrecognized is logged with full context and surfaced as an opaque 500.
func respondError(c *gin.Context, err error) {
	var notFoundErr *models.NotFoundError
	var stockErr *models.InsufficientStockError
	var invalidErr *models.InvalidArgumentError
	var conflictErr *models.ConflictError
	var mysqlErr *mysql.MySQLError

	switch {
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr), errors.As(err, &invalidErr), errors.Is(err, utils.ErrNegativeAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &mysqlErr) && (mysqlErr.Number == 1205 || mysqlErr.Number == 1213):
		// Lock wait timeouts and deadlock aborts are retryable from the
		// client's side.
		c.JSON(http.StatusConflict, gin.H{"error": "could not lock the affected rows, please retry"})
	default:
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		logger := config.GetLogger()
		config.LogError(logger, "server", "respondError", c.FullPath(), gin.H{"correlation_id": correlationId}, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "correlation_id": correlationId})
	}
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
}

func parseIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parsePage(c *gin.Context) int {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	return page
}
