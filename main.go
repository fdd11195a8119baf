package main

import (
	"math/rand"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"astrovet/config"
	"astrovet/game"
	"astrovet/oracle"
	"astrovet/shared/logger"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Couldn't load configuration: %v", err)
	}
	logger.SetDebug(cfg.Debug)

	var evaluator game.Evaluator
	if cfg.OracleURL != "" {
		evaluator = oracle.NewClient(cfg.OracleURL, cfg.OracleTimeout)
	} else {
		logger.Warningf("No ORACLE_URL configured, answers are checked locally")
	}

	idGen := game.NewIdGen()
	tickerGen := game.NewTickerGen()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	hub := game.NewHub(game.RoomConfigs{
		RoundSeconds: cfg.RoundSeconds,
		MaxRounds:    cfg.MaxRounds,
		MaxLives:     cfg.MaxLives,
		AdvanceDelay: cfg.AdvanceDelay,
	}, &idGen, &tickerGen, evaluator, rng)

	hubStarted := make(chan struct{})
	go hub.Run(hubStarted)
	<-hubStarted

	r := CreateServer(cfg.AllowedOrigins)

	gameHandler := game.NewGameHandler(hub)
	r.GET("/ws", gameHandler.ConnectHandler)

	logger.Infof("Listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatalf("Couldn't start server: %v", err)
	}
}
