package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"marketgateway/internal/config"
	"marketgateway/internal/game"
	"marketgateway/internal/market"
	"marketgateway/internal/provider"
)

const (
	mimeNDJSON      = "application/x-ndjson"
	mimeEventStream = "text/event-stream"

	headerUserEmail = "X-User-Email"
	headerUserName  = "X-User-Name"

	// maxRounds bounds a single game request.
	maxRounds = 20
)

var errNoIdentity = errors.New("not authenticated")

type api struct {
	market    *market.Service
	assembler *game.Assembler
	// scores is nil when no database is configured.
	scores game.ScoreStore
	game   config.Game
}

func (a *api) register(r gin.IRouter) {
	r.GET("/healthz", a.health)
	r.HEAD("/healthz", a.health)

	m := r.Group("/api/market")
	m.GET("/prices", a.prices)
	m.GET("/prices/:category", a.prices)
	m.GET("/candles/:symbol", a.candles)

	g := r.Group("/api/game")
	g.GET("/guess-the-chart", a.guessTheChart)
	g.POST("/submit-score", a.submitScore)
	g.GET("/leaderboard", a.leaderboard)
	g.GET("/my-scores", a.myScores)
}

func (a *api) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// prices answers with the quotes that arrived, in arrival order. Clients
// asking for an event stream or ndjson get each quote as soon as it completes.
func (a *api) prices(c *gin.Context) {
	category := c.Param("category")
	quotes := a.market.GetPrices(c.Request.Context(), category)

	accept := c.GetHeader("Accept")
	if strings.Contains(accept, mimeEventStream) {
		c.Header("Content-Type", mimeEventStream)
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		for q := range quotes {
			c.SSEvent("", q)
			if c.IsAborted() {
				return
			}
			c.Writer.Flush()
		}
		return
	}

	if strings.Contains(accept, mimeNDJSON) {
		c.Header("Content-Type", mimeNDJSON)
		c.Status(http.StatusOK)
		enc := json.NewEncoder(c.Writer)
		for q := range quotes {
			if err := enc.Encode(q); err != nil {
				zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("client went away mid-stream")
				return
			}
			c.Writer.Flush()
		}
		return
	}

	out := make([]provider.Quote, 0)
	for q := range quotes {
		out = append(out, q)
	}
	c.JSON(http.StatusOK, out)
}

func (a *api) candles(c *gin.Context) {
	c.JSON(http.StatusOK, a.market.GetCandles(c.Request.Context(), c.Param("symbol")))
}

func (a *api) guessTheChart(c *gin.Context) {
	rounds, err := intQuery(c, "rounds", a.game.DefaultRounds)
	if err != nil || rounds < 1 || rounds > maxRounds {
		fail(c, http.StatusBadRequest, "rounds must be between 1 and "+strconv.Itoa(maxRounds))
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": a.assembler.BuildRounds(c.Request.Context(), rounds)})
}

type submitScoreRequest struct {
	Score       *int `json:"score" binding:"required,min=0"`
	TotalRounds *int `json:"totalRounds" binding:"required,min=1"`
	TimeTaken   *int `json:"timeTaken" binding:"required,min=0"`
}

func (a *api) submitScore(c *gin.Context) {
	if !a.requireStore(c) {
		return
	}
	email, name, err := identity(c)
	if err != nil {
		fail(c, http.StatusUnauthorized, err.Error())
		return
	}
	var req submitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid score: "+err.Error())
		return
	}
	if *req.Score > *req.TotalRounds {
		fail(c, http.StatusBadRequest, "score cannot exceed totalRounds")
		return
	}

	s := &game.Score{
		UserEmail:   email,
		UserName:    name,
		Score:       *req.Score,
		TotalRounds: *req.TotalRounds,
		TimeTaken:   *req.TimeTaken,
	}
	if err := a.scores.Save(c.Request.Context(), s); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("user", email).Msg("save score")
		fail(c, http.StatusInternalServerError, "could not save score")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "score saved", "scoreId": s.ID})
}

func (a *api) leaderboard(c *gin.Context) {
	if !a.requireStore(c) {
		return
	}
	limit, err := intQuery(c, "limit", a.game.LeaderboardLimit)
	if err != nil {
		fail(c, http.StatusBadRequest, "limit must be a number")
		return
	}
	scores, err := a.scores.All(c.Request.Context())
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("load scores")
		fail(c, http.StatusInternalServerError, "could not load scores")
		return
	}
	c.JSON(http.StatusOK, game.Rank(scores, limit))
}

func (a *api) myScores(c *gin.Context) {
	if !a.requireStore(c) {
		return
	}
	email, _, err := identity(c)
	if err != nil {
		fail(c, http.StatusUnauthorized, err.Error())
		return
	}
	scores, err := a.scores.ByUser(c.Request.Context(), email)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("user", email).Msg("load user scores")
		fail(c, http.StatusInternalServerError, "could not load scores")
		return
	}
	if scores == nil {
		scores = []game.Score{}
	}
	c.JSON(http.StatusOK, scores)
}

func (a *api) requireStore(c *gin.Context) bool {
	if a.scores == nil {
		fail(c, http.StatusServiceUnavailable, "score storage is not configured")
		return false
	}
	return true
}

// identity reads the user forwarded by the auth layer in front of us.
// The name falls back to the local part of the email.
func identity(c *gin.Context) (email, name string, err error) {
	email = strings.TrimSpace(c.GetHeader(headerUserEmail))
	if email == "" {
		return "", "", errNoIdentity
	}
	name = strings.TrimSpace(c.GetHeader(headerUserName))
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return email, name, nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}
