package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/service"
)

type SaleHandler struct {
	sales *service.SaleService
}

func NewSaleHandler(sales *service.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Process godoc
// @Summary  Register a sale against the open cash session
// @Tags     sales
// @Accept   json
// @Produce  json
// @Param    sale body dto.ProcessSaleRequest true "Sale"
// @Success  201 {object} dto.SaleResponse
// @Failure  409 {object} apierror.APIError
// @Router   /v1/sales [post]
func (h *SaleHandler) Process(c *gin.Context) {
	var req dto.ProcessSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sales.ProcessSale(c.Request.Context(), authUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Void godoc
// @Summary  Void a sale, restoring stock (supervisor or admin)
// @Tags     sales
// @Produce  json
// @Param    id path string true "Sale id"
// @Success  200 {object} dto.SaleResponse
// @Failure  409 {object} apierror.APIError
// @Router   /v1/sales/{id}/void [post]
func (h *SaleHandler) Void(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sales.VoidSale(c.Request.Context(), authRole(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SaleHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.sales.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
