package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventhorizon-app/backend/internal/services"
)

func MailMiddleware(mail *services.MailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("mail_service", mail)
		c.Next()
	}
}

func GetMailService(c *gin.Context) *services.MailService {
	mail, exists := c.Get("mail_service")
	if !exists {
		return nil
	}
	return mail.(*services.MailService)
}

func AnalysisMiddleware(analysis *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("analysis_service", analysis)
		c.Next()
	}
}

func GetAnalysisService(c *gin.Context) *services.AnalysisService {
	analysis, exists := c.Get("analysis_service")
	if !exists {
		return nil
	}
	return analysis.(*services.AnalysisService)
}
