// Package middleware - source IP filtering for machine-to-machine ingress.
package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// IPWhitelist admits only the listed addresses and CIDR ranges. It guards
// the provider-facing endpoints (webhook ingest, ATM verification) that
// authenticate the calling system rather than a user.
//
// An empty whitelist admits everything; local setups run without one.
func IPWhitelist(entries []string) gin.HandlerFunc {
	var (
		addrs = make(map[string]bool)
		nets  []*net.IPNet
	)

	for _, entry := range entries {
		if _, ipNet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipNet)
			continue
		}
		addrs[entry] = true
	}

	open := len(addrs) == 0 && len(nets) == 0

	return func(c *gin.Context) {
		if open {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		if addrs[clientIP] {
			c.Next()
			return
		}

		if ip := net.ParseIP(clientIP); ip != nil {
			for _, ipNet := range nets {
				if ipNet.Contains(ip) {
					c.Next()
					return
				}
			}
		}

		// 401, not 403: the caller is an unrecognized system, not an
		// authenticated one lacking a permission.
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"detail": "source address is not allowed",
		})
	}
}
