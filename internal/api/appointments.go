package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/booking"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
)

// BookRequest represents a booking of a stylist's service
type BookRequest struct {
	PortfolioID uint   `json:"portfolio_id" binding:"required"`
	ScheduledAt string `json:"scheduled_at" binding:"required"` // RFC3339
	PaymentMode string `json:"payment_mode" binding:"omitempty,oneof=full deposit"`
}

// ReasonRequest carries the optional reason of a decline, cancellation or dispute
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// RescheduleRequest moves an appointment to a new time
type RescheduleRequest struct {
	ScheduledAt string `json:"scheduled_at" binding:"required"` // RFC3339
}

func parseTime(c *gin.Context, v string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at must be RFC3339"})
		return time.Time{}, false
	}
	return t, true
}

// BookHandler books a portfolio and charges the upfront amount
func BookHandler(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		var req BookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		at, ok := parseTime(c, req.ScheduledAt)
		if !ok {
			return
		}
		appt, err := svc.Book(c.Request.Context(), userID, booking.BookInput{
			PortfolioID: req.PortfolioID,
			ScheduledAt: at,
			PaymentMode: req.PaymentMode,
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Appointment booked", "appointment": appt})
	}
}

// ListAppointmentsHandler lists the caller's appointments, newest first.
// Admins see every appointment.
func ListAppointmentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := mustUser(c)
		if !ok {
			return
		}
		page, pageSize, offset := pageParams(c)
		query := db.Model(&domain.Appointment{})
		if role != domain.RoleAdmin {
			query = query.Where("(customer_id = ? OR stylist_id = ?)", userID, userID)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count appointments"})
			return
		}
		var appts []domain.Appointment
		if err := query.Order("scheduled_at desc").Offset(offset).Limit(pageSize).Find(&appts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch appointments"})
			return
		}
		c.JSON(http.StatusOK, pageResponse("appointments", appts, page, pageSize, total))
	}
}

// GetAppointmentHandler returns one appointment visible to the caller
func GetAppointmentHandler(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := mustUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		appt, err := svc.Get(c.Request.Context(), userID, role, id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"appointment": appt})
	}
}

// transitionHandler runs a status change that needs only the caller and the appointment id
func transitionHandler(message string, fn func(c *gin.Context, userID, id uint) (*domain.Appointment, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		appt, err := fn(c, userID, id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "appointment": appt})
	}
}

// reason reads an optional JSON reason; an empty body is allowed
func reason(c *gin.Context) string {
	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)
	return req.Reason
}

// ApproveHandler lets the stylist accept a pending booking
func ApproveHandler(svc *booking.Service) gin.HandlerFunc {
	return transitionHandler("Appointment approved", func(c *gin.Context, userID, id uint) (*domain.Appointment, error) {
		return svc.Approve(c.Request.Context(), userID, id)
	})
}

// DeclineHandler lets the stylist turn down a pending booking
func DeclineHandler(svc *booking.Service) gin.HandlerFunc {
	return transitionHandler("Appointment declined", func(c *gin.Context, userID, id uint) (*domain.Appointment, error) {
		return svc.Decline(c.Request.Context(), userID, id, reason(c))
	})
}

// CancelHandler cancels on behalf of either participant
func CancelHandler(svc *booking.Service) gin.HandlerFunc {
	return transitionHandler("Appointment cancelled", func(c *gin.Context, userID, id uint) (*domain.Appointment, error) {
		return svc.Cancel(c.Request.Context(), userID, id, reason(c))
	})
}

// CompleteHandler lets the stylist mark an appointment done
func CompleteHandler(svc *booking.Service) gin.HandlerFunc {
	return transitionHandler("Appointment completed", func(c *gin.Context, userID, id uint) (*domain.Appointment, error) {
		return svc.Complete(c.Request.Context(), userID, id)
	})
}

// RescheduleHandler moves the customer's appointment to a new time
func RescheduleHandler(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req RescheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		at, ok := parseTime(c, req.ScheduledAt)
		if !ok {
			return
		}
		appt, err := svc.Reschedule(c.Request.Context(), userID, id, at)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Appointment rescheduled", "appointment": appt})
	}
}

// OpenDisputeHandler freezes the stylist's pouch pending an admin ruling
func OpenDisputeHandler(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req ReasonRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Reason == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A reason is required"})
			return
		}
		dispute, err := svc.OpenDispute(c.Request.Context(), userID, id, req.Reason)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Dispute opened", "dispute": dispute})
	}
}

// PouchesHandler lists the stylist's pouches with totals per status
func PouchesHandler(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		summary, err := svc.Pouches(c.Request.Context(), userID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
