package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
)

// ReviewRequest rates a completed appointment
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// RatingSummary aggregates a stylist's reviews
type RatingSummary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

func ratingKey(stylistID uint) string {
	return "stylist:rating:" + strconv.FormatUint(uint64(stylistID), 10)
}

// ratingSummary returns the cached summary or computes and caches it
func ratingSummary(ctx context.Context, db *gorm.DB, rdb *redis.Client, stylistID uint) (RatingSummary, error) {
	var s RatingSummary
	if found, err := utils.GetCache(ctx, rdb, ratingKey(stylistID), &s); err == nil && found {
		return s, nil
	}
	var row struct {
		Count   int64
		Average float64
	}
	if err := db.WithContext(ctx).Model(&domain.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("stylist_id = ?", stylistID).
		Scan(&row).Error; err != nil {
		return s, err
	}
	s = RatingSummary{Count: row.Count, Average: math.Round(row.Average*100) / 100}
	_ = utils.SetCache(ctx, rdb, ratingKey(stylistID), s, 10*time.Minute)
	return s, nil
}

// CreateReviewHandler lets the customer review a completed appointment once
func CreateReviewHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
			return
		}
		var review domain.Review
		err := db.Transaction(func(tx *gorm.DB) error {
			var appt domain.Appointment
			if err := tx.First(&appt, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("Appointment not found")
				}
				return err
			}
			if appt.CustomerID != userID {
				return apperr.Forbidden("Only the customer can review this appointment")
			}
			if appt.Status != domain.AppointmentCompleted {
				return apperr.InvalidTransition("Only completed appointments can be reviewed")
			}
			var n int64
			if err := tx.Model(&domain.Review{}).Where("appointment_id = ?", appt.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return apperr.Conflict("Appointment already reviewed")
			}
			review = domain.Review{
				AppointmentID: appt.ID,
				CustomerID:    userID,
				StylistID:     appt.StylistID,
				Rating:        req.Rating,
				Comment:       req.Comment,
			}
			return tx.Create(&review).Error
		})
		if err != nil {
			if apperr.Status(err) >= http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"user_id":        userID,
					"appointment_id": id,
					"error":          err.Error(),
				}).Error("Failed to create review")
			}
			apperr.Respond(c, err)
			return
		}
		_ = utils.DeleteCache(c.Request.Context(), rdb, ratingKey(review.StylistID))
		c.JSON(http.StatusCreated, gin.H{"review": review})
	}
}

// ListReviewsHandler returns a page of a stylist's reviews with the rating summary
func ListReviewsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		stylistID, ok := idParam(c, "id")
		if !ok {
			return
		}
		page, pageSize, offset := pageParams(c)
		summary, err := ratingSummary(c.Request.Context(), db, rdb, stylistID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize reviews"})
			return
		}
		var reviews []domain.Review
		if err := db.Where("stylist_id = ?", stylistID).
			Order("created_at desc").Order("id desc").
			Offset(offset).Limit(pageSize).
			Find(&reviews).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
			return
		}
		resp := pageResponse("reviews", reviews, page, pageSize, summary.Count)
		resp["summary"] = summary
		c.JSON(http.StatusOK, resp)
	}
}
