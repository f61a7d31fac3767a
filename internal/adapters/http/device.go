package http

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	ua "github.com/mileusna/useragent"
	"github.com/shambasecure/auth-service/internal/application"
)

// deviceFromRequest derives the caller's device context from the User-Agent
// header and the client IP. The fingerprint must be stable across requests
// from the same browser on the same network, so it hashes exactly those two
// inputs and nothing volatile.
func deviceFromRequest(r *http.Request) application.DeviceContext {
	rawUA := r.UserAgent()
	ip := readIP(r)

	parsed := ua.Parse(rawUA)
	deviceType := "desktop"
	switch {
	case parsed.Mobile:
		deviceType = "mobile"
	case parsed.Tablet:
		deviceType = "tablet"
	case parsed.Bot:
		deviceType = "bot"
	}

	return application.DeviceContext{
		Fingerprint: deviceFingerprint(rawUA, ip),
		DeviceType:  deviceType,
		OS:          strings.TrimSpace(parsed.OS + " " + parsed.OSVersion),
		Browser:     parsed.Name,
		IPAddress:   ip,
		UserAgent:   rawUA,
	}
}

func deviceFingerprint(userAgent, ip string) string {
	if userAgent == "" && ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(userAgent + "|" + ip))
	return hex.EncodeToString(sum[:])
}

func readIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host := strings.TrimSpace(r.RemoteAddr)
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}
