package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	authService     *service.AuthService
	catalogService  *service.CatalogService
	cartService     *service.CartService
	checkoutService *service.CheckoutService
	wishlistService *service.WishlistService
	tokens          *service.TokenIssuer
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authService *service.AuthService,
	catalogService *service.CatalogService,
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	wishlistService *service.WishlistService,
	tokens *service.TokenIssuer,
) *Handler {
	return &Handler{
		authService:     authService,
		catalogService:  catalogService,
		cartService:     cartService,
		checkoutService: checkoutService,
		wishlistService: wishlistService,
		tokens:          tokens,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/verify", h.verifyEmail)
			auth.POST("/login", h.login)
			auth.POST("/refresh", h.refresh)
		}

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)

		// Cart routes work for guests too; identity comes from either the
		// bearer token or the session cookie.
		cart := v1.Group("")
		cart.Use(OptionalAuth(h.tokens))
		{
			cart.GET("/cart", h.getCart)
			cart.POST("/cart/items", h.addCartItem)
			cart.PATCH("/cart/items/:id", h.updateCartItem)
			cart.DELETE("/cart/items/:id", h.removeCartItem)
		}

		authed := v1.Group("")
		authed.Use(RequireAuth(h.tokens))
		{
			authed.GET("/profile", h.profile)
			authed.GET("/wishlist", h.listWishlist)
			authed.POST("/wishlist/toggle", h.toggleWishlist)
			authed.POST("/orders", h.checkout)
			authed.GET("/orders", h.listOrders)
			authed.GET("/orders/:id", h.getOrder)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// register handles user registration
func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "verification code sent",
	})
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// verifyEmail confirms the registration code and issues tokens
func (h *Handler) verifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// login authenticates a verified user
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// refresh exchanges a refresh token for a fresh pair
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// profile returns the authenticated user's profile
func (h *Handler) profile(c *gin.Context) {
	user, err := h.authService.Profile(c.Request.Context(), authedUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// listProducts returns all active products
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProduct returns one product by id
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// getCart returns the requester's cart with subtotals
func (h *Handler) getCart(c *gin.Context) {
	view, err := h.cartService.GetCart(c.Request.Context(), requesterIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// addCartItem adds a product to the cart, merging with an existing line
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	line, err := h.cartService.AddItem(c.Request.Context(), requesterIdentity(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// updateCartItem sets an absolute quantity on one cart line
func (h *Handler) updateCartItem(c *gin.Context) {
	itemID, ok := pathID(c)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	line, err := h.cartService.UpdateItemQuantity(c.Request.Context(), requesterIdentity(c), itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

// removeCartItem deletes one cart line
func (h *Handler) removeCartItem(c *gin.Context) {
	itemID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), requesterIdentity(c), itemID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type toggleWishlistRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

// toggleWishlist adds or removes a product from the user's wishlist
func (h *Handler) toggleWishlist(c *gin.Context) {
	var req toggleWishlistRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.wishlistService.Toggle(c.Request.Context(), authedUserID(c), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// listWishlist returns the user's wishlist with product details
func (h *Handler) listWishlist(c *gin.Context) {
	items, err := h.wishlistService.List(c.Request.Context(), authedUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// checkout converts the user's cart into an order
func (h *Handler) checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.checkoutService.Checkout(c.Request.Context(), authedUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listOrders returns the user's orders, newest first
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.checkoutService.ListOrders(c.Request.Context(), authedUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder returns one of the user's orders with its items
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := h.checkoutService.GetOrder(c.Request.Context(), authedUserID(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   models.ErrCodeInvalidJSON,
			Message: err.Error(),
		})
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   models.ErrCodeValidation,
			Message: "invalid id",
		})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP status codes and the shared
// error payload shape.
func respondError(c *gin.Context, err error) {
	var (
		stockErr      *models.InsufficientStockError
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
	)

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   models.ErrCodeInsufficientStock,
			Message: stockErr.Error(),
		})
	case errors.Is(err, models.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   models.ErrCodeEmptyCart,
			Message: err.Error(),
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   models.ErrCodeValidation,
			Message: validationErr.Message,
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   models.ErrCodeNotFound,
			Message: notFoundErr.Error(),
		})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   models.ErrCodeUnauthorized,
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrEmailNotVerified):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   models.ErrCodeForbidden,
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   models.ErrCodeInternal,
			Message: "internal server error",
		})
	}
}
