package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"   // HTTP-aware errors
	"github.com/kingsloob1/snipfair-app-sub000/internal/booking"  // Booking service
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"   // Importing domain models
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"   // Realtime notifications
	"github.com/kingsloob1/snipfair-app-sub000/internal/settings" // Platform settings
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"    // Utility functions
	"github.com/kingsloob1/snipfair-app-sub000/internal/wallet"   // Wallet ledger
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID           uint          `json:"id"`            // User ID
	Username     string        `json:"username"`      // Username
	Email        string        `json:"email"`         // Contact email
	Role         string        `json:"role"`          // User role
	RewardPoints int64         `json:"reward_points"` // Unredeemed points
	Wallet       domain.Wallet `json:"wallet"`        // Associated wallet
}

// ListUsersHandler returns users with their wallet info, optionally filtered by role
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()              // Context for Redis operations
		page, pageSize, offset := pageParams(c) // Pagination
		role := c.Query("role")                 // Optional role filter
		// Create a cache key based on pagination parameters
		cacheKey := "admin:users:role=" + role + ":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached struct {
			Users      []UserAdminResponse `json:"users"`       // List of users
			Page       int                 `json:"page"`        // Current page
			PageSize   int                 `json:"page_size"`   // Page size
			Total      int64               `json:"total"`       // Total number of users
			TotalPages int                 `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			resp := pageResponse("users", cached.Users, cached.Page, cached.PageSize, cached.Total)
			resp["cached"] = true // Indicate response is from cache
			c.JSON(http.StatusOK, resp)
			return
		}
		query := db.Model(&domain.User{})
		if role != "" {
			query = query.Where("role = ?", role) // Filter by role
		}
		var total int64 // Total user count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"}) // Return on error
			return
		}
		var users []domain.User // Slice to hold users
		// Preload Wallet relation, apply offset and limit for pagination
		if err := query.Preload("Wallet").Order("id").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"}) // Return on error
			return
		}
		// Map users to response format
		out := make([]UserAdminResponse, len(users))
		for i, u := range users {
			out[i] = UserAdminResponse{
				ID:           u.ID,           // User ID
				Username:     u.Username,     // Username
				Email:        u.Email,        // Contact email
				Role:         u.Role,         // User role
				RewardPoints: u.RewardPoints, // Reward balance
				Wallet:       u.Wallet,       // Associated wallet
			}
		}
		resp := pageResponse("users", out, page, pageSize, total)
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return the response
	}
}

// ListTransactionsHandler returns all transactions, with optional filtering by user, type, appointment or date
func ListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Build cache key from all query params
		var keyParts []string
		for _, k := range []string{"user_id", "type", "appointment_id", "from", "to", "page", "page_size"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, "")) // Append key-value pair
		}
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")
		var cached struct {
			Transactions []domain.Transaction `json:"transactions"` // List of transactions
			Page         int                  `json:"page"`         // Current page
			PageSize     int                  `json:"page_size"`    // Page size
			Total        int64                `json:"total"`        // Total number of transactions
			TotalPages   int                  `json:"total_pages"`  // Total pages
		}
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			resp := pageResponse("transactions", cached.Transactions, cached.Page, cached.PageSize, cached.Total)
			resp["cached"] = true
			c.JSON(http.StatusOK, resp)
			return
		}
		page, pageSize, offset := pageParams(c)  // Pagination
		query := db.Model(&domain.Transaction{}) // Start building the query
		if userID := c.Query("user_id"); userID != "" {
			// Transactions reference wallets, so resolve the user's wallet first
			sub := db.Model(&domain.Wallet{}).Select("id").Where("user_id = ?", userID)
			query = query.Where("(from_wallet_id IN (?) OR to_wallet_id IN (?))", sub, sub)
		}
		if txType := c.Query("type"); txType != "" {
			query = query.Where("type = ?", txType) // Filter by transaction type
		}
		if apptID := c.Query("appointment_id"); apptID != "" {
			query = query.Where("appointment_id = ?", apptID) // Filter by appointment
		}
		if from := c.Query("from"); from != "" {
			query = query.Where("created_at >= ?", from) // Filter by start time (unix ms)
		}
		if to := c.Query("to"); to != "" {
			query = query.Where("created_at <= ?", to) // Filter by end time (unix ms)
		}
		var total int64 // Total transaction count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		var txs []domain.Transaction // Slice to hold transactions
		if err := query.Order("created_at desc").Order("id desc").Offset(offset).Limit(pageSize).Find(&txs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		resp := pageResponse("transactions", txs, page, pageSize, total)
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return the response
	}
}

// AdminListAppointmentsHandler returns every appointment, filterable by status and participants
func AdminListAppointmentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize, offset := pageParams(c)
		query := db.Model(&domain.Appointment{})
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if id := c.Query("customer_id"); id != "" {
			query = query.Where("customer_id = ?", id)
		}
		if id := c.Query("stylist_id"); id != "" {
			query = query.Where("stylist_id = ?", id)
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

// ListDisputesHandler returns disputes, filterable by status
func ListDisputesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize, offset := pageParams(c)
		query := db.Model(&domain.Dispute{})
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count disputes"})
			return
		}
		var disputes []domain.Dispute
		if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&disputes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch disputes"})
			return
		}
		c.JSON(http.StatusOK, pageResponse("disputes", disputes, page, pageSize, total))
	}
}

// ResolveDisputeRequest is an admin's ruling
type ResolveDisputeRequest struct {
	CustomerShare *float64 `json:"customer_share" binding:"required,gte=0,lte=100"` // Percent refunded to the customer
	Resolution    string   `json:"resolution" binding:"required"`                   // Explanation kept on the dispute
}

// ResolveDisputeHandler splits a disputed appointment's money between the parties
func ResolveDisputeHandler(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, _, ok := mustUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req ResolveDisputeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		dispute, err := svc.ResolveDispute(c.Request.Context(), adminID, id, booking.ResolveInput{
			CustomerShare: *req.CustomerShare,
			Resolution:    req.Resolution,
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Dispute resolved", "dispute": dispute})
	}
}

// ListWithdrawalsHandler returns withdrawals, filterable by status
func ListWithdrawalsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize, offset := pageParams(c)
		query := db.Model(&domain.Withdrawal{})
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count withdrawals"})
			return
		}
		var list []domain.Withdrawal
		if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch withdrawals"})
			return
		}
		c.JSON(http.StatusOK, pageResponse("withdrawals", list, page, pageSize, total))
	}
}

// reviewWithdrawal moves a pending withdrawal to status; a rejection returns
// the held amount to the stylist
func reviewWithdrawal(db *gorm.DB, id uint, status string) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&w, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Withdrawal not found")
			}
			return err
		}
		res := tx.Model(&domain.Withdrawal{}).
			Where("id = ? AND status = ?", w.ID, domain.WithdrawalPending).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Withdrawal already reviewed")
		}
		w.Status = status
		if status != domain.WithdrawalRejected {
			return nil
		}
		_, err := wallet.Credit(tx, w.StylistID, w.Amount, wallet.Entry{Type: domain.TxWithdrawalReversal, Reference: w.Reference})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ReviewWithdrawalHandler approves or rejects a pending withdrawal
func ReviewWithdrawalHandler(db *gorm.DB, rdb *redis.Client, pub Publisher, status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		w, err := reviewWithdrawal(db, id, status)
		if err != nil {
			if apperr.Status(err) >= http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"withdrawal_id": id,
					"status":        status,
					"error":         err.Error(),
				}).Error("Withdrawal review failed")
			}
			apperr.Respond(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"withdrawal_id": w.ID,
			"stylist_id":    w.StylistID,
			"amount":        w.Amount,
			"status":        w.Status,
		}).Info("Withdrawal reviewed")
		wallet.Invalidate(c.Request.Context(), rdb, w.StylistID)
		pub.Publish([]uint{w.StylistID}, events.Event{Type: events.WalletUpdated, Data: w})
		c.JSON(http.StatusOK, gin.H{"withdrawal": w})
	}
}

// GetSettingsHandler returns every setting with defaults filled in
func GetSettingsHandler(store *settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := store.All(c.Request.Context())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"settings": all})
	}
}

// UpdateSettingsHandler stores the given settings
func UpdateSettingsHandler(store *settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req map[string]float64
		if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := store.Update(c.Request.Context(), req); err != nil {
			apperr.Respond(c, err)
			return
		}
		all, err := store.All(c.Request.Context())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Settings updated", "settings": all})
	}
}
