package server

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gin-gonic/gin"
)

var (
	okStatusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	clientStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	serverStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func requestLoggerWithColor(l *log.Logger, color bool) gin.HandlerFunc {
	if l == nil {
		l = log.New(os.Stdout, "", log.LstdFlags)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		l.Println(formatRequestLine(status, latency, c.ClientIP(), c.Request.Method, c.Request.URL.Path, c.GetString(ctxSourceName), color))
	}
}

func formatRequestLine(status int, latency time.Duration, ip, method, path, name string, color bool) string {
	statusText := strconv.Itoa(status)
	if color {
		switch {
		case status >= 500:
			statusText = serverStatusStyle.Render(statusText)
		case status >= 400:
			statusText = clientStatusStyle.Render(statusText)
		default:
			statusText = okStatusStyle.Render(statusText)
		}
	}

	line := fmt.Sprintf("status=%s latency_ms=%d client_ip=%s method=%s path=%s", statusText, latency.Milliseconds(), ip, method, path)
	if name != "" {
		line += fmt.Sprintf(" name=%q", name)
	}
	return line
}
