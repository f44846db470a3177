package handler

import (
	"net/http"
	"strconv"

	"github.com/cloud-wave-best-zizon/cart-service/internal/domain"
	"github.com/cloud-wave-best-zizon/cart-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	cartService    *service.CartService
	productService *service.ProductService
	logger         *zap.Logger
}

func NewCartHandler(cartService *service.CartService, productService *service.ProductService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService:    cartService,
		productService: productService,
		logger:         logger,
	}
}

func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.POST("/initialize", h.InitializeCart)
		cart.POST("/products", h.AddProduct)
		cart.POST("/products/random", h.AddRandomProduct)
		cart.PATCH("/products/:id", h.ChangeQuantity)
		cart.DELETE("/products/:id", h.RemoveProduct)
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartService.Summary())
}

func (h *CartHandler) InitializeCart(c *gin.Context) {
	if err := h.cartService.Initialize(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to load catalog",
		})
		return
	}

	c.JSON(http.StatusOK, h.cartService.Summary())
}

func (h *CartHandler) AddProduct(c *gin.Context) {
	var req domain.AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	h.cartService.AddProduct(c.Request.Context(), req.Product())
	c.JSON(http.StatusCreated, h.cartService.Summary())
}

func (h *CartHandler) AddRandomProduct(c *gin.Context) {
	product, err := h.productService.AddRandomProduct(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to create product",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product": product,
		"cart":    h.cartService.Summary(),
	})
}

// ChangeQuantity answers 200 with the unchanged cart for quantities below 1
// or unknown products.
func (h *CartHandler) ChangeQuantity(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}

	var req domain.ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	h.cartService.ChangeQuantity(c.Request.Context(), productID, *req.Quantity)
	c.JSON(http.StatusOK, h.cartService.Summary())
}

func (h *CartHandler) RemoveProduct(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}

	h.cartService.RemoveProduct(c.Request.Context(), productID)
	c.JSON(http.StatusOK, h.cartService.Summary())
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	h.cartService.ClearCart(c.Request.Context())
	c.JSON(http.StatusOK, h.cartService.Summary())
}

func (h *CartHandler) productID(c *gin.Context) (int64, bool) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product id",
		})
		return 0, false
	}
	return productID, true
}
