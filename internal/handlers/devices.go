package handlers

import (
	"errors"
	"net/http"

	"wifi_tracker/internal/models"
	"wifi_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errListDevices     = "failed to list devices"
	errGetDevice       = "failed to load device"
	errListAPs         = "failed to list access points"
	errInvalidHardware = "invalid hardware address"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondDevices writes the {"devices": [...]} envelope for f.
func (h *Handler) respondDevices(c *gin.Context, f service.DeviceFilter) {
	devices, err := h.services.Devices.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListDevices, "devices_list_failed", err, "query", f.Query)
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "devices"
// @Failure      500  {object}  map[string]string
// @Router       / [get]
func (h *Handler) listDevices(c *gin.Context) {
	h.respondDevices(c, service.DeviceFilter{Query: service.QueryAll})
}

// @Summary      List online devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "devices"
// @Router       /online [get]
func (h *Handler) listOnline(c *gin.Context) {
	h.respondDevices(c, service.DeviceFilter{Query: service.QueryOnline})
}

// @Summary      List offline devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "devices"
// @Router       /offline [get]
func (h *Handler) listOffline(c *gin.Context) {
	h.respondDevices(c, service.DeviceFilter{Query: service.QueryOffline})
}

// @Summary      List devices ever seen on an access point
// @Tags         devices
// @Produce      json
// @Param        ap   path      string  true  "Access point host name"
// @Success      200  {object}  map[string]interface{}  "devices"
// @Router       /ap/{ap} [get]
func (h *Handler) listByAccessPoint(c *gin.Context) {
	h.respondDevices(c, service.DeviceFilter{Query: service.QueryAccessPoint, AccessPoint: c.Param("ap")})
}

// @Summary      List access points
// @Tags         access-points
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "access_points"
// @Router       /ap [get]
func (h *Handler) listAccessPoints(c *gin.Context) {
	aps, err := h.services.Devices.AccessPoints(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListAPs, "access_points_list_failed", err)
		return
	}
	if aps == nil {
		aps = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"access_points": aps})
}

// @Summary      Get device by hardware address
// @Description  Unknown addresses return 404 with a null device.
// @Tags         devices
// @Produce      json
// @Param        mac  path      string  true  "Hardware address, e.g. 00:11:22:33:44:55"
// @Success      200  {object}  map[string]interface{}  "device"
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]interface{}  "device: null"
// @Router       /mac/{mac} [get]
func (h *Handler) getDevice(c *gin.Context) {
	mac := c.Param("mac")
	d, err := h.services.Devices.Get(c.Request.Context(), mac)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"device": d})
	case errors.Is(err, service.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"device": nil})
	case errors.Is(err, models.ErrInvalidHardwareAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidHardware})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errGetDevice, "device_get_failed", err, "mac", mac)
	}
}
