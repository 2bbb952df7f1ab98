package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/importer"
	"github.com/yanarios/sistema-kiosco/internal/service"
)

const maxImportSize = 10 << 20 // 10 MiB

type ProductHandler struct {
	catalog *service.CatalogService
	reports *service.ReportService
}

func NewProductHandler(catalog *service.CatalogService, reports *service.ReportService) *ProductHandler {
	return &ProductHandler{catalog: catalog, reports: reports}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.catalog.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) GetByCode(c *gin.Context) {
	resp, err := h.catalog.GetProductByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeactivateProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) Reactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.ReactivateProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock applies a signed manual stock correction (supervisor or admin).
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.catalog.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) StockHistory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	resp, err := h.reports.StockHistory(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Import godoc
// @Summary  Bulk upsert the catalog from a CSV or XLSX file (admin)
// @Tags     products
// @Accept   multipart/form-data
// @Produce  json
// @Param    file formData file true "Catalog file"
// @Success  200 {object} dto.ImportResponse
// @Failure  422 {object} apierror.APIError
// @Router   /v1/products/import [post]
func (h *ProductHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("missing file upload"))
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("file too large"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("unreadable file upload"))
		return
	}
	defer file.Close()

	var rows []dto.ProductRow
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		rows, err = importer.ParseCSV(file)
	case ".xlsx":
		rows, err = importer.ParseXLSX(file)
	default:
		c.JSON(http.StatusUnprocessableEntity, apierror.New("unsupported file type, use .csv or .xlsx"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.catalog.UpsertBatch(c.Request.Context(), rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export streams the active catalog as an XLSX download.
func (h *ProductHandler) Export(c *gin.Context) {
	f, err := h.reports.ExportProductsXLSX(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="products.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		respondError(c, apierror.Transient(err))
	}
}
