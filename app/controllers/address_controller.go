package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/requests"
	"github.com/address-resolver/app/responses"
	"github.com/address-resolver/app/services"
)

// AddressController serves address resolution
type AddressController struct {
	addressService *services.AddressService
	logger         *zap.Logger
}

// NewAddressController creates an AddressController
func NewAddressController(addressService *services.AddressService, logger *zap.Logger) *AddressController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressController{
		addressService: addressService,
		logger:         logger,
	}
}

// Resolve resolves one address
func (ac *AddressController) Resolve(c *gin.Context) {
	var req requests.ResolveAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	in := req.Input()
	if in.IsEmpty() {
		badRequest(c, "EMPTY_ADDRESS", "at least one address field is required")
		return
	}

	c.JSON(http.StatusOK, ac.addressService.Resolve(c.Request.Context(), in))
}

// Extract reports the components found in free text
func (ac *AddressController) Extract(c *gin.Context) {
	var req requests.ExtractAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	c.JSON(http.StatusOK, ac.addressService.Extract(req.Text))
}

// Batch resolves a bounded list of addresses, keeping request order
func (ac *AddressController) Batch(c *gin.Context) {
	var req requests.BatchResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	if len(req.Items) > requests.MaxBatchSize {
		badRequest(c, "TOO_MANY_ADDRESSES", "batch is limited to 1000 items")
		return
	}

	start := time.Now()
	inputs := make([]models.RawGeoInput, len(req.Items))
	for i, item := range req.Items {
		inputs[i] = item.Input()
	}

	results, err := ac.addressService.ResolveBatch(c.Request.Context(), inputs)
	if err != nil {
		ac.logger.Warn("Batch resolve aborted", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, responses.ErrorResponse{
			Error:   "BATCH_ABORTED",
			Message: err.Error(),
		})
		return
	}

	matched := 0
	for _, r := range results {
		if r.Resolved.Matched {
			matched++
		}
	}

	c.JSON(http.StatusOK, responses.BatchResolveResponse{
		MasterVersion:    ac.addressService.Master().Version(),
		Total:            len(results),
		Matched:          matched,
		Results:          results,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// HealthCheck reports service status
func (ac *AddressController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, ac.health("ok"))
}

// Ready fails until master data is loaded
func (ac *AddressController) Ready(c *gin.Context) {
	if ac.addressService.Master().Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, ac.health("no master data"))
		return
	}
	c.JSON(http.StatusOK, ac.health("ready"))
}

func (ac *AddressController) health(status string) responses.HealthResponse {
	master := ac.addressService.Master()
	return responses.HealthResponse{
		Status:        status,
		MasterVersion: master.Version(),
		MasterRecords: master.Len(),
		Uptime:        time.Since(ac.addressService.GetStartTime()).Round(time.Second).String(),
	}
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, responses.ErrorResponse{
		Error:   code,
		Message: message,
	})
}
