package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/service"
)

const priceCacheTTL = 30 * time.Second

// PriceCheckHandler serves the public, unauthenticated price lookup used by
// shelf scanners. Responses are cached in Redis so a scanner burst never
// hammers the catalog.
type PriceCheckHandler struct {
	catalog *service.CatalogService
	rdb     *redis.Client
}

func NewPriceCheckHandler(catalog *service.CatalogService, rdb *redis.Client) *PriceCheckHandler {
	return &PriceCheckHandler{catalog: catalog, rdb: rdb}
}

func (h *PriceCheckHandler) Check(c *gin.Context) {
	code := c.Param("code")
	cacheKey := "kiosco:price:" + code

	if h.rdb != nil {
		if cached, err := h.rdb.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var resp dto.PriceCheckResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	product, err := h.catalog.GetProductByCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.PriceCheckResponse{
		Name:           product.Name,
		SalePrice:      product.SalePrice,
		StockAvailable: product.StockActual,
		Category:       product.Category,
	}

	if h.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.rdb.Set(c.Request.Context(), cacheKey, payload, priceCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("price cache write failed")
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}
