package ratelimit

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const userAgentKeyLength = 32

// ClientKey derives the rate-limit identifier for a request. The right-most
// forwarded-for entry is the hop closest to the trusted edge, which resists
// trivial header spoofing; the truncated user agent keeps two distinct
// browsers behind one address from aliasing each other.
func ClientKey(c *fiber.Ctx) string {
	ip := c.IP()
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		parts := strings.Split(fwd, ",")
		if last := strings.TrimSpace(parts[len(parts)-1]); last != "" {
			ip = last
		}
	}

	ua := c.Get(fiber.HeaderUserAgent)
	if len(ua) > userAgentKeyLength {
		ua = ua[:userAgentKeyLength]
	}

	return ip + "|" + ua
}
