package activitylog

import (
	"github.com/mssola/useragent"
)

// ParseAgent resolves a User-Agent header into the agent section.
func ParseAgent(header string) map[string]any {
	if header == "" {
		return nil
	}

	ua := useragent.New(header)
	browser, browserVersion := ua.Browser()
	osInfo := ua.OSInfo()

	return map[string]any{
		"browser":          browser,
		"browser_version":  browserVersion,
		"platform":         osInfo.Name,
		"platform_version": osInfo.Version,
		"device":           ua.Platform(),
		"is_mobile":        ua.Mobile(),
		"is_desktop":       !ua.Mobile() && !ua.Bot(),
		"user_agent":       header,
	}
}
