package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"
	"github.com/kingsloob1/snipfair-app-sub000/internal/settings"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
	"github.com/kingsloob1/snipfair-app-sub000/internal/wallet"
)

// RedeemRequest converts reward points into wallet credit
type RedeemRequest struct {
	Points int64 `json:"points" binding:"required,gte=1"`
}

// GetRewardsHandler returns the caller's point balance and a page of history
func GetRewardsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		page, pageSize, offset := pageParams(c)
		var total int64
		if err := db.Model(&domain.Reward{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count rewards"})
			return
		}
		var history []domain.Reward
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").Order("id desc").
			Offset(offset).Limit(pageSize).
			Find(&history).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rewards"})
			return
		}
		resp := pageResponse("history", history, page, pageSize, total)
		resp["points"] = user.RewardPoints
		c.JSON(http.StatusOK, resp)
	}
}

// RedeemRewardsHandler spends points and credits their value to the wallet
func RedeemRewardsHandler(db *gorm.DB, rdb *redis.Client, store *settings.Store, pub Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		var req RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Points must be at least 1"})
			return
		}
		v, err := store.Load(c.Request.Context())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		credit := utils.RoundMoney(float64(req.Points) * v.RewardRedeemRate)
		if credit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Too few points to redeem"})
			return
		}
		reference := "rewards:" + strconv.FormatUint(uint64(userID), 10) + ":" + strconv.FormatInt(time.Now().UnixMilli(), 10)
		err = db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&domain.User{}).
				Where("id = ? AND reward_points >= ?", userID, req.Points).
				Update("reward_points", gorm.Expr("reward_points - ?", req.Points))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.BadRequest("Not enough reward points")
			}
			if err := tx.Create(&domain.Reward{UserID: userID, Points: req.Points, Kind: domain.RewardRedeem}).Error; err != nil {
				return err
			}
			_, err := wallet.Credit(tx, userID, credit, wallet.Entry{Type: domain.TxReward, Reference: reference})
			return err
		})
		if err != nil {
			if apperr.Status(err) >= http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"user_id": userID,
					"points":  req.Points,
					"error":   err.Error(),
				}).Error("Reward redemption failed")
			}
			apperr.Respond(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"points":  req.Points,
			"credit":  credit,
		}).Info("Rewards redeemed")
		wallet.Invalidate(c.Request.Context(), rdb, userID)
		pub.Publish([]uint{userID}, events.Event{Type: events.WalletUpdated, Data: gin.H{"type": domain.TxReward, "amount": credit}})
		c.JSON(http.StatusOK, gin.H{"message": "Rewards redeemed", "points": req.Points, "credit": credit})
	}
}
