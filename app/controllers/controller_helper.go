package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetClientIP determines the actual client IP address considering proxies and dual stack
// Returns both IPv4 and IPv6 addresses if available
func GetClientIP(c *fiber.Ctx) (string, string) {
	ipv4 := ""
	ipv6 := ""

	assign := func(ip string) {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			return
		}
		if strings.Contains(ip, ":") {
			if ipv6 == "" {
				ipv6 = ip
			}
		} else if ipv4 == "" {
			ipv4 = ip
		}
	}

	// Cloudflare provides the original client IP in this header
	assign(c.Get("CF-Connecting-IP"))

	for _, ip := range strings.Split(c.Get("X-Forwarded-For"), ",") {
		assign(ip)
	}

	assign(c.IP())

	return ipv4, ipv6
}
