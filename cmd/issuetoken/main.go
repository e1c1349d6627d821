// Command issuetoken prints a bearer token for the cleaning API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/config"
	"github.com/paulcha3/group4-BDM-case/src/security"
)

func main() {
	config.LoadConfig()

	subject := flag.String("subject", "", "Analyst name to put in the token")
	expiry := flag.Duration("expiry", 0, "Token lifetime (default ACCESS_TOKEN_EXPIRY)")
	flag.Parse()

	ttl := config.Cfg.AccessTokenExpiry
	if *expiry > 0 {
		ttl = *expiry
	}
	token, err := security.NewAuthService(config.Cfg.JWTSecret, ttl).GenerateToken(*subject)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to issue token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Now().Add(ttl).UTC().Format(time.RFC3339))
}
