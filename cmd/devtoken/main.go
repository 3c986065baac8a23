// Command devtoken prints a bearer token for local API calls.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/auth"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/config"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

func main() {
	userID := flag.String("user", "dev-user", "user id to embed in the token")
	name := flag.String("name", "Developer", "display name")
	admin := flag.Bool("admin", false, "issue a system administrator token")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, *ttl)
	if err != nil {
		log.Fatalf("❌ %v (set JWT_SECRET)", err)
	}

	profile := constants.ProfileStandardUser
	if *admin {
		profile = constants.ProfileSystemAdmin
	}
	token, err := tokens.GenerateToken(models.UserSession{
		ID:        *userID,
		Name:      *name,
		ProfileID: profile,
	})
	if err != nil {
		log.Fatalf("❌ Failed to sign token: %v", err)
	}

	fmt.Fprintln(os.Stdout, token)
	log.Printf("✅ Token for %s valid until %s", *userID, time.Now().Add(*ttl).Format(time.RFC3339))
}
