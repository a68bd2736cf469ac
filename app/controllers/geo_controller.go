package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/responses"
	"github.com/address-resolver/app/services"
	"github.com/address-resolver/internal/search"
)

// GeoController serves master data lookups
type GeoController struct {
	geoService *services.GeoService
	logger     *zap.Logger
}

// NewGeoController creates a GeoController
func NewGeoController(geoService *services.GeoService, logger *zap.Logger) *GeoController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeoController{geoService: geoService, logger: logger}
}

// ByPostalCode lists the records of a postal code
func (gc *GeoController) ByPostalCode(c *gin.Context) {
	records, err := gc.geoService.ByPostalCode(c.Param("code"))
	if errors.Is(err, services.ErrInvalidPostalCode) {
		badRequest(c, "INVALID_POSTAL_CODE", err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.RecordsResponse{Total: len(records), Records: records})
}

// Provinces lists every province
func (gc *GeoController) Provinces(c *gin.Context) {
	units := gc.geoService.Provinces()
	c.JSON(http.StatusOK, responses.AdminUnitsResponse{
		Level: models.LevelProvince,
		Total: len(units),
		Units: units,
	})
}

// Districts lists the districts of a province
func (gc *GeoController) Districts(c *gin.Context) {
	units := gc.geoService.Districts(c.Param("province"))
	if len(units) == 0 {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "PROVINCE_NOT_FOUND",
			Message: "unknown province: " + c.Param("province"),
		})
		return
	}

	c.JSON(http.StatusOK, responses.AdminUnitsResponse{
		Level: models.LevelDistrict,
		Total: len(units),
		Units: units,
	})
}

// Search finds records by name, optionally filtered by province, district or postal code
func (gc *GeoController) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := search.Filter{
		Province:   c.Query("province"),
		District:   c.Query("district"),
		PostalCode: c.Query("postal_code"),
	}

	records, err := gc.geoService.Search(c.Query("q"), filter, limit)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			badRequest(c, "EMPTY_QUERY", "q is required")
			return
		}
		gc.logger.Error("Search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "SEARCH_ERROR",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.RecordsResponse{Total: len(records), Records: records})
}
