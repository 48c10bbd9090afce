// Package debug holds admin only diagnostics
package debug

import (
	"net/http"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	ErrMailNotConfigured = apperr.New(http.StatusServiceUnavailable, "MAIL_NOT_CONFIGURED", "SMTP is not configured, emails are only logged")
	ErrSMTPUnreachable   = apperr.New(http.StatusBadGateway, "SMTP_UNREACHABLE", "Failed to connect to the SMTP server")
)

// Email dials the configured SMTP server and reports whether it accepted
// the credentials
func Email(c *gin.Context, d *internal.Deps) {
	smtp, ok := d.Mailer.(*service.SMTPMailer)
	if !ok {
		c.Error(ErrMailNotConfigured)
		return
	}

	if err := smtp.Verify(); err != nil {
		zap.L().Warn("SMTP check failed", zap.Error(err))
		c.Error(ErrSMTPUnreachable.WithDetails(err.Error()))
		return
	}

	response.Success(c, gin.H{"smtp": "ok"}, "SMTP connection verified")
}
