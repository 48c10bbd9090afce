package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitwise74/recipe-api/app"
	"bitwise74/recipe-api/config"
	"bitwise74/recipe-api/db"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := app.MakeLogger(viper.GetString("app.log_level"), config.IsProduction()); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, database, err := db.New(ctx)
	if err != nil {
		zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	if *config.SweepChallenges {
		n, err := service.SweepChallenges(ctx, store.NewUsers(database), time.Now().UTC())
		if err != nil {
			zap.L().Fatal("Failed to sweep challenges", zap.Error(err))
		}

		zap.L().Info("Sweep finished", zap.Int64("removed", n))
		return
	}

	d, err := app.NewDeps(ctx, client, database)
	if err != nil {
		zap.L().Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("host.port")),
		Handler:           app.NewRouter(ctx, d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down cleanly", zap.Error(err))
	}
}
