package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DrVanHelsing/CallTech/internal/directory"
)

func (s *Server) listCustomers(c echo.Context) error {
	records, err := s.deps.Customers.List(c.Request().Context())
	if err != nil {
		log.Printf("customers: %v", err)
		return c.String(http.StatusInternalServerError, "Error reading customer data")
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) getCustomer(c echo.Context) error {
	customer, err := s.deps.Customers.FindByID(c.Request().Context(), c.Param("id"))
	return s.customerResult(c, customer, err)
}

func (s *Server) customerByPhone(c echo.Context) error {
	digits := c.Param("digits")
	if !directory.ValidSuffix(digits) {
		return c.String(http.StatusBadRequest, "At least 4 digits are required")
	}
	customer, err := s.deps.Customers.FindByPhoneSuffix(c.Request().Context(), digits)
	return s.customerResult(c, customer, err)
}

func (s *Server) customerResult(c echo.Context, customer directory.Customer, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, customer)
	case errors.Is(err, directory.ErrNotFound):
		return c.String(http.StatusNotFound, "Customer not found")
	default:
		log.Printf("customers: %v", err)
		return c.String(http.StatusInternalServerError, "Error reading customer data")
	}
}
