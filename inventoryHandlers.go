package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/models/reports"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/gin-gonic/gin"
)

func listMovementsHandler(c *gin.Context) {
	page := parsePage(c)
	productId, _ := strconv.Atoi(c.Query("product_id"))

	movements, total, err := models.ListMovements(c.Request.Context(), page, productId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": movements, "total": total, "page": page})
}

func adjustInventoryHandler(c *gin.Context) {
	var input models.NewInventoryAdjustment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	userId, _ := utils.GetUserIdFromContext(ctx)

	// Driving stock negative is an admin-only escape hatch.
	role, _ := utils.GetUserRoleFromContext(ctx)
	if models.UserRole(role) != models.RoleAdmin {
		input.AllowNegative = false
	}

	product, err := models.AdjustInventory(ctx, input, userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func lowStockHandler(c *gin.Context) {
	records, err := reports.GetLowStockReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

func inventorySummaryHandler(c *gin.Context) {
	records, err := reports.GetInventorySummaryReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

func inventorySummaryExportHandler(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=inventory_summary.xlsx")
	if err := reports.ExportInventorySummaryXlsx(c.Request.Context(), c.Writer); err != nil {
		respondError(c, err)
	}
}
