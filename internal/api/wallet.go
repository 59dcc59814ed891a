package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Withdrawal references
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"  // HTTP-aware errors
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"  // Importing domain models
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"  // Realtime notifications
	"github.com/kingsloob1/snipfair-app-sub000/internal/gateway" // Payment gateway
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"   // Utility functions
	"github.com/kingsloob1/snipfair-app-sub000/internal/wallet"  // Wallet ledger
)

// Publisher delivers realtime events to users
type Publisher interface {
	Publish(userIDs []uint, evt events.Event)
}

// TipRequest represents a tip for the stylist of a completed appointment
type TipRequest struct {
	AppointmentID uint    `json:"appointment_id" binding:"required"` // Completed appointment
	Amount        float64 `json:"amount" binding:"required,gt=0"`    // Tip amount
}

// TipHandler moves money from the customer's wallet to the stylist's
func TipHandler(db *gorm.DB, rdb *redis.Client, pub Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c) // Get userID from context
		if !ok {
			return
		}
		var req TipRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var appt domain.Appointment // Find the tipped appointment
		if err := db.First(&appt, req.AppointmentID).Error; err != nil {
			// If appointment not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
			return
		}
		// Only the customer of a completed appointment may tip
		if appt.CustomerID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		if appt.Status != domain.AppointmentCompleted {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only completed appointments can be tipped"})
			return
		}
		amount := utils.RoundMoney(req.Amount) // Round to cents
		// Atomic transfer
		err := db.Transaction(func(tx *gorm.DB) error {
			return wallet.Transfer(tx, userID, appt.StylistID, amount, wallet.Entry{
				Type:          domain.TxTip,   // Transaction type
				AppointmentID: &appt.ID,       // Tipped appointment
				Reference:     appt.Reference, // Booking reference
			})
		})
		// Handle transaction result
		if err != nil {
			if apperr.Status(err) >= http.StatusInternalServerError {
				// Log the error with context
				logrus.WithFields(logrus.Fields{
					"from_user_id": userID,         // Sender user ID
					"to_user_id":   appt.StylistID, // Recipient user ID
					"amount":       amount,         // Tip amount
					"error":        err.Error(),    // Error message
				}).Error("Tip failed") // Log tip failure
			}
			apperr.Respond(c, err)
			return
		}
		// Log successful tip
		logrus.WithFields(logrus.Fields{
			"from_user_id":   userID,                          // Sender user ID
			"to_user_id":     appt.StylistID,                  // Recipient user ID
			"appointment_id": appt.ID,                         // Appointment ID
			"amount":         amount,                          // Tip amount
			"type":           domain.TxTip,                    // Transaction type
			"timestamp":      time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Tip transaction") // Log tip success
		// Invalidate wallet and transaction history cache for both users
		wallet.Invalidate(c.Request.Context(), rdb, userID, appt.StylistID)
		pub.Publish([]uint{userID, appt.StylistID}, events.Event{Type: events.WalletUpdated, Data: gin.H{"type": domain.TxTip, "amount": amount}})
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Tip sent", "amount": amount})
	}
}

// TopupRequest represents a gateway top-up request
type TopupRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"` // Top-up amount
}

// TopupHandler starts a gateway payment; the wallet is credited when the
// gateway's notification arrives
func TopupHandler(gw *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c) // Get userID from context
		if !ok {
			return
		}
		var req TopupRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		checkout, err := gw.Initiate(c.Request.Context(), userID, req.Amount)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		// Return the signed form for the client to post to the gateway
		c.JSON(http.StatusCreated, checkout)
	}
}

// WithdrawRequest represents a stylist cash-out request
type WithdrawRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"` // Amount to withdraw
}

// WithdrawHandler holds the requested amount out of the stylist's wallet until
// an admin approves or rejects the withdrawal
func WithdrawHandler(db *gorm.DB, rdb *redis.Client, pub Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c) // Get userID from context
		if !ok {
			return
		}
		var req WithdrawRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		w := domain.Withdrawal{
			Reference: uuid.NewString(),             // Unique withdrawal reference
			StylistID: userID,                       // Requesting stylist
			Amount:    utils.RoundMoney(req.Amount), // Rounded amount
			Status:    domain.WithdrawalPending,     // Awaiting admin review
		}
		// Debit and record atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			if _, err := wallet.Debit(tx, userID, w.Amount, wallet.Entry{Type: domain.TxWithdrawal, Reference: w.Reference}); err != nil {
				return err // Return error to rollback
			}
			return tx.Create(&w).Error
		})
		if err != nil {
			if apperr.Status(err) >= http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"user_id": userID,      // User ID
					"amount":  w.Amount,    // Withdrawal amount
					"error":   err.Error(), // Error message
				}).Error("Withdrawal failed") // Log withdrawal failure
			}
			apperr.Respond(c, err)
			return
		}
		// Log the request
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,      // User ID
			"amount":    w.Amount,    // Withdrawal amount
			"reference": w.Reference, // Withdrawal reference
		}).Info("Withdrawal requested")
		wallet.Invalidate(c.Request.Context(), rdb, userID) // Invalidate wallet cache
		pub.Publish([]uint{userID}, events.Event{Type: events.WalletUpdated, Data: w})
		c.JSON(http.StatusCreated, gin.H{"message": "Withdrawal requested", "withdrawal": w})
	}
}

// CreateWalletHandler creates a wallet for a user (one wallet per user)
func CreateWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c) // Get userID from context
		if !ok {
			return
		}
		// Check if wallet already exists
		var w domain.Wallet
		if err := db.Where("user_id = ?", userID).First(&w).Error; err == nil {
			// If wallet exists, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet already exists"})
			return
		}
		// Create new wallet with zero balance
		w = domain.Wallet{UserID: userID, Balance: 0}
		if err := db.Create(&w).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to create wallet") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create wallet"})
			return
		}
		// Log successful wallet creation
		logrus.WithFields(logrus.Fields{
			"user_id":   userID, // User ID
			"wallet_id": w.ID,   // Wallet ID
		}).Info("Wallet created")
		wallet.Invalidate(c.Request.Context(), rdb, userID) // Invalidate wallet cache
		c.JSON(http.StatusCreated, gin.H{"message": "Wallet created", "wallet": w})
	}
}

// GetWalletHandler returns wallet info for the authenticated user
func GetWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c) // Get userID from context
		if !ok {
			return
		}
		ctx := c.Request.Context()                           // Context for Redis operations
		cacheKey := wallet.WalletKey(userID)                 // Cache key for wallet
		var w domain.Wallet                                  // Wallet struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &w) // Try to get from cache
		if err == nil && found {
			// Return cached wallet
			c.JSON(http.StatusOK, gin.H{"wallet": w, "cached": true})
			return
		}
		// If not in cache, fetch from DB
		if err := db.Where("user_id = ?", userID).First(&w).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, w, 60*time.Second)  // Cache the wallet for 60 seconds
		c.JSON(http.StatusOK, gin.H{"wallet": w, "cached": false}) // Return wallet info
	}
}

// GetTransactionHistoryHandler returns a page of the authenticated user's transactions
func GetTransactionHistoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c) // Get userID from context
		if !ok {
			return
		}
		var w domain.Wallet // Get user's wallet
		if err := db.Where("user_id = ?", userID).First(&w).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		page, pageSize, offset := pageParams(c) // Pagination
		txType := c.Query("type")               // Optional type filter
		// Redis cache key
		cacheKey := wallet.HistoryPrefix(userID) + "page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize) + ":type:" + txType
		ctx := c.Request.Context() // Context for Redis operations
		var cached struct {
			Transactions []domain.Transaction `json:"transactions"` // List of transactions
			Page         int                  `json:"page"`         // Current page
			PageSize     int                  `json:"page_size"`    // Page size
			Total        int64                `json:"total"`        // Total transactions
			TotalPages   int                  `json:"total_pages"`  // Total pages
		}
		// Try to get from cache
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			resp := pageResponse("transactions", cached.Transactions, cached.Page, cached.PageSize, cached.Total)
			resp["cached"] = true
			c.JSON(http.StatusOK, resp)
			return
		}
		q := db.Model(&domain.Transaction{}).Where("(from_wallet_id = ? OR to_wallet_id = ?)", w.ID, w.ID)
		if txType != "" {
			q = q.Where("type = ?", txType)
		}
		var total int64 // Total count of transactions
		if err := q.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		var transactions []domain.Transaction // Slice to hold transactions
		if err := q.Order("created_at desc").Order("id desc").
			Offset(offset).
			Limit(pageSize).
			Find(&transactions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		resp := pageResponse("transactions", transactions, page, pageSize, total)
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return transaction history
	}
}
