package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"writing-challenge-api/models"
	"writing-challenge-api/services"
)

type challengeService interface {
	List(ctx context.Context) ([]models.Challenge, error)
	Get(ctx context.Context, id uint) (*models.Challenge, error)
	Create(ctx context.Context, in services.CreateChallengeInput) (*models.Challenge, error)
}

type ChallengeController struct {
	challenges challengeService
}

func NewChallengeController(challenges challengeService) *ChallengeController {
	return &ChallengeController{challenges: challenges}
}

type createChallengeRequest struct {
	Name        string             `json:"name" binding:"required,max=200"`
	Description string             `json:"description" binding:"max=5000"`
	Prompt      string             `json:"prompt" binding:"required,max=5000"`
	Genre       models.Genre       `json:"genre" binding:"required"`
	SkillLevel  models.SkillLevel  `json:"skill_level" binding:"required"`
	StartTime   time.Time          `json:"start_time" binding:"required"`
	EndTime     time.Time          `json:"end_time" binding:"required"`
	Limitations models.Limitations `json:"limitations"`
}

// GET /api/v1/challenges
func (h *ChallengeController) List(c *gin.Context) {
	items, err := h.challenges.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /api/v1/challenges/:id
func (h *ChallengeController) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	challenge, err := h.challenges.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// POST /api/v1/challenges
func (h *ChallengeController) Create(c *gin.Context) {
	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": err.Error()})
		return
	}

	challenge, err := h.challenges.Create(c.Request.Context(), services.CreateChallengeInput{
		AuthorID:    uid,
		Name:        req.Name,
		Description: req.Description,
		Prompt:      req.Prompt,
		Genre:       req.Genre,
		SkillLevel:  req.SkillLevel,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Limitations: req.Limitations,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}
