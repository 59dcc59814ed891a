package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
)

// PortfolioRequest creates or replaces a stylist's service
type PortfolioRequest struct {
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description"`
	Price           float64 `json:"price" binding:"required,gt=0"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
	Active          *bool   `json:"active"` // Defaults to true
}

func (r PortfolioRequest) active() bool {
	return r.Active == nil || *r.Active
}

// CreatePortfolioHandler adds a service to the stylist's portfolio
func CreatePortfolioHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		var req PortfolioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		p := domain.Portfolio{
			StylistID:       userID,
			Title:           req.Title,
			Description:     req.Description,
			Price:           utils.RoundMoney(req.Price),
			DurationMinutes: req.DurationMinutes,
			Active:          true,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			// The column default is true, so inactive must be written explicitly
			if !req.active() {
				p.Active = false
				return tx.Model(&p).Update("active", false).Error
			}
			return nil
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"stylist_id": userID,
				"error":      err.Error(),
			}).Error("Failed to create portfolio")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create portfolio"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"portfolio": p})
	}
}

// UpdatePortfolioHandler replaces one of the stylist's own services
func UpdatePortfolioHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req PortfolioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var p domain.Portfolio
		if err := db.Where("id = ? AND stylist_id = ?", id, userID).First(&p).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
			return
		}
		updates := map[string]any{
			"title":            req.Title,
			"description":      req.Description,
			"price":            utils.RoundMoney(req.Price),
			"duration_minutes": req.DurationMinutes,
			"active":           req.active(),
		}
		if err := db.Model(&p).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update portfolio"})
			return
		}
		if err := db.First(&p, p.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"portfolio": p})
	}
}

// ListPortfoliosHandler returns a stylist's active services
func ListPortfoliosHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stylistID, ok := idParam(c, "id")
		if !ok {
			return
		}
		var list []domain.Portfolio
		if err := db.Where("stylist_id = ? AND active = ?", stylistID, true).Order("id").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolios"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"portfolios": list})
	}
}
