package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr       string
	AdminToken string `masq:"secret"`
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       ":5000",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("NODRUMS_ADDR"),
		},
		&cli.StringFlag{
			Name:        "admin-token",
			Usage:       "Bearer token required for destructive API calls (open when empty)",
			Destination: &c.AdminToken,
			Sources:     cli.EnvVars("NODRUMS_ADMIN_TOKEN"),
		},
	}
}
