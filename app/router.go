// Package app wires every endpoint into the router
package app

import (
	"context"
	"time"

	"bitwise74/recipe-api/app/auth"
	"bitwise74/recipe-api/app/blog"
	"bitwise74/recipe-api/app/debug"
	"bitwise74/recipe-api/app/recipe"
	"bitwise74/recipe-api/app/root"
	"bitwise74/recipe-api/app/user"
	"bitwise74/recipe-api/config"
	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/validators"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// with adapts a handler that needs the shared dependencies. A handler that
// reported an error is aborted so the page cache never stores it.
func with(d *internal.Deps, h func(*gin.Context, *internal.Deps)) gin.HandlerFunc {
	return func(c *gin.Context) {
		h(c, d)

		if len(c.Errors) > 0 {
			c.Abort()
		}
	}
}

// NewRouter builds the engine. Background work owned by the router (limiter
// sweeps, cache expiry) stops when ctx is done.
func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	if err := validators.Register(); err != nil {
		zap.L().Error("Failed to register custom validators", zap.Error(err))
	}

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     config.Origins(),
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.ErrorHandler(!config.IsProduction()),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	rateLimit := viper.GetInt("security.rate_limit")
	maxUploadSize := viper.GetInt64("upload.max_size") + 1<<20

	pages := newPageCache(ctx)

	jwt := middleware.NewJWTMiddleware(d.Users, d.JWTSecret)
	admin := middleware.RequireRole(model.RoleAdmin)
	jsonBody := middleware.BodySizeLimiter(1 << 20)
	uploadBody := middleware.BodySizeLimiter(maxUploadSize)

	// GET /health			-> Uptime
	router.GET("/health", with(d, root.Health))

	// GET /ready			-> Checks the database connection
	router.GET("/ready", with(d, root.Ready))

	m := router.Group("/api", middleware.RateLimiterMiddleware(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	}))
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/debug/email		-> Verifies the SMTP configuration
		m.GET("/debug/email", jwt, admin, with(d, debug.Email))
	}

	a := m.Group("/auth", jsonBody)
	{
		// POST /api/auth/register		-> Creates an account and sends a verification email
		a.POST("/register", with(d, auth.Register))

		// POST /api/auth/login			-> Logs in with email or username
		a.POST("/login", with(d, auth.Login))

		// POST /api/auth/logout		-> Clears the auth cookie
		a.POST("/logout", auth.Logout)

		// POST /api/auth/verify/request	-> Sends a new verification email
		a.POST("/verify/request", jwt, with(d, auth.VerifyRequest))

		// GET|POST /api/auth/verify/confirm	-> Verifies the email with a link token
		a.GET("/verify/confirm", with(d, auth.VerifyConfirm))
		a.POST("/verify/confirm", with(d, auth.VerifyConfirm))

		// POST /api/auth/verify/confirm-code	-> Verifies the email with a code
		a.POST("/verify/confirm-code", jwt, with(d, auth.VerifyConfirmCode))

		// POST /api/auth/forgot		-> Sends password reset instructions
		a.POST("/forgot", with(d, auth.Forgot))

		// POST /api/auth/reset/token		-> Resets the password with a link token
		a.POST("/reset/token", with(d, auth.ResetWithToken))

		// POST /api/auth/reset/code		-> Resets the password with a code
		a.POST("/reset/code", with(d, auth.ResetWithCode))
	}

	u := m.Group("/users", jwt)
	{
		// GET /api/users/profile		-> Returns the logged in user
		u.GET("/profile", user.Profile)

		// PUT /api/users/update-info		-> Changes the name or email
		u.PUT("/update-info", jsonBody, with(d, user.UpdateInfo))

		// PUT /api/users/change-password	-> Changes the password
		u.PUT("/change-password", jsonBody, with(d, user.ChangePassword))

		// PUT /api/users/avatar		-> Uploads a new avatar
		u.PUT("/avatar", uploadBody, with(d, user.Avatar))

		// GET /api/users			-> Lists users (admin)
		u.GET("", admin, with(d, user.List))

		// GET /api/users/:id			-> Returns a user (admin)
		u.GET("/:id", admin, with(d, user.Get))

		// PUT /api/users/:id/status		-> Blocks or unblocks a user (admin)
		u.PUT("/:id/status", admin, jsonBody, with(d, user.SetStatus))

		// PUT /api/users/:id/role		-> Changes a user's role (admin)
		u.PUT("/:id/role", admin, jsonBody, with(d, user.SetRole))

		// DELETE /api/users/:id		-> Deletes a user (admin)
		u.DELETE("/:id", admin, with(d, user.Delete))
	}

	r := m.Group("/recipes", pages.Purge("/api/recipes"))
	{
		// GET /api/recipes			-> Lists and searches visible recipes
		r.GET("", pages.For(15*time.Second), with(d, recipe.List))

		// GET /api/recipes/:id			-> Returns a recipe with its author
		r.GET("/:id", pages.For(5*time.Second), with(d, recipe.Get))

		// POST /api/recipes			-> Creates a recipe, JSON or multipart
		r.POST("", jwt, uploadBody, with(d, recipe.Create))

		// PUT /api/recipes/:id			-> Updates a recipe (author or admin)
		r.PUT("/:id", jwt, uploadBody, with(d, recipe.Update))

		// DELETE /api/recipes/:id		-> Deletes a recipe (author or admin)
		r.DELETE("/:id", jwt, with(d, recipe.Delete))

		// POST /api/recipes/:id/like		-> Toggles a like
		r.POST("/:id/like", jwt, with(d, recipe.Like))

		// POST /api/recipes/:id/rate		-> Rates a recipe, replacing any earlier rating
		r.POST("/:id/rate", jwt, jsonBody, with(d, recipe.Rate))

		// DELETE /api/recipes/:id/rate		-> Removes the caller's rating
		r.DELETE("/:id/rate", jwt, with(d, recipe.DeleteRating))

		// DELETE /api/recipes/:id/ratings/:userId	-> Removes someone's rating (admin)
		r.DELETE("/:id/ratings/:userId", jwt, admin, with(d, recipe.AdminDeleteRating))

		// POST /api/recipes/:id/comments	-> Adds a comment
		r.POST("/:id/comments", jwt, jsonBody, with(d, recipe.AddComment))

		// DELETE /api/recipes/:id/comments/:commentId		-> Deletes own comment
		r.DELETE("/:id/comments/:commentId", jwt, with(d, recipe.DeleteComment))

		// DELETE /api/recipes/:id/comments/:commentId/moderate	-> Deletes any comment (recipe author or admin)
		r.DELETE("/:id/comments/:commentId/moderate", jwt, with(d, recipe.ModerateComment))

		// PUT /api/recipes/:id/hide		-> Hides a recipe (admin)
		r.PUT("/:id/hide", jwt, admin, with(d, recipe.SetHidden(true)))

		// PUT /api/recipes/:id/unhide		-> Makes a recipe visible again (admin)
		r.PUT("/:id/unhide", jwt, admin, with(d, recipe.SetHidden(false)))
	}

	// GET /api/admin/recipes		-> Lists every recipe including hidden ones
	m.GET("/admin/recipes", jwt, admin, with(d, recipe.ListAll))

	b := m.Group("/blogs", pages.Purge("/api/blogs"))
	{
		// GET /api/blogs			-> Lists blogs
		b.GET("", pages.For(30*time.Second), with(d, blog.List))

		// GET /api/blogs/:id			-> Returns a blog with its author
		b.GET("/:id", pages.For(30*time.Second), with(d, blog.Get))

		// POST /api/blogs			-> Creates a blog (admin)
		b.POST("", jwt, admin, uploadBody, with(d, blog.Create))

		// PUT /api/blogs/:id			-> Updates a blog (admin)
		b.PUT("/:id", jwt, admin, uploadBody, with(d, blog.Update))

		// DELETE /api/blogs/:id		-> Deletes a blog (admin)
		b.DELETE("/:id", jwt, admin, with(d, blog.Delete))

		// POST /api/blogs/:id/comments		-> Adds a comment
		b.POST("/:id/comments", jwt, jsonBody, with(d, blog.AddComment))

		// DELETE /api/blogs/:id/comments/:commentId	-> Deletes own comment, admins may delete any
		b.DELETE("/:id/comments/:commentId", jwt, with(d, blog.DeleteComment))
	}

	return router
}
