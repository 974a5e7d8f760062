package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
)

type createInvoiceRequest struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	EffectiveDate string `json:"effective_date" binding:"required"`
}

type updateInvoiceRequest struct {
	Amount        *int64  `json:"amount"`
	EffectiveDate *string `json:"effective_date"`
}

type voidInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}

	customerID, err := snowflake.ParseString(req.CustomerID)
	if err != nil {
		AbortWithError(c, newValidationError("customer_id must be a valid id"))
		return
	}

	effectiveDate, err := time.Parse(time.RFC3339, req.EffectiveDate)
	if err != nil {
		AbortWithError(c, newValidationError("effective_date must be RFC3339"))
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID:    customerID,
		Amount:        req.Amount,
		Status:        invoicedomain.InvoiceStatus(req.Status),
		EffectiveDate: effectiveDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

func (s *Server) GetInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id must be a valid id"))
		return
	}

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id must be a valid id"))
		return
	}

	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}

	update := invoicedomain.UpdateInvoiceRequest{Amount: req.Amount}
	if req.EffectiveDate != nil {
		effectiveDate, err := time.Parse(time.RFC3339, *req.EffectiveDate)
		if err != nil {
			AbortWithError(c, newValidationError("effective_date must be RFC3339"))
			return
		}
		update.EffectiveDate = &effectiveDate
	}

	invoice, err := s.invoiceSvc.Update(c.Request.Context(), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) PayInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id must be a valid id"))
		return
	}

	invoice, err := s.invoiceSvc.Pay(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) VoidInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id must be a valid id"))
		return
	}

	var req voidInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError(err))
			return
		}
	}

	invoice, err := s.invoiceSvc.Void(c.Request.Context(), id, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if s.invoiceSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id must be a valid id"))
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
