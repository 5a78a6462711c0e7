package httpserver

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type healthResponse struct {
	OK         bool    `json:"ok"`
	CPUPercent float64 `json:"cpuPercent"`
	MemPercent float64 `json:"memPercent"`
}

func (s *Server) health(c echo.Context) error {
	resp := healthResponse{OK: true}
	if pct, err := cpu.PercentWithContext(c.Request().Context(), 0, false); err == nil && len(pct) > 0 {
		resp.CPUPercent = pct[0]
	} else if err != nil {
		log.Printf("health: cpu: %v", err)
	}
	if vm, err := mem.VirtualMemoryWithContext(c.Request().Context()); err == nil {
		resp.MemPercent = vm.UsedPercent
	} else {
		log.Printf("health: mem: %v", err)
	}
	return c.JSON(http.StatusOK, resp)
}
