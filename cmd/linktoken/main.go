package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"social-link/gatekeeper/internal/common"
)

// Mints a linking URL for a Discord id from the command line. Handy for
// poking the /link/claim exchange without a running bot.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: linktoken <discord_id>")
	}

	key := os.Getenv("LINK_SIGNING_KEY")
	if key == "" {
		log.Fatal("LINK_SIGNING_KEY is not set")
	}

	siteURL := os.Getenv("LINK_SITE_URL")
	if siteURL == "" {
		siteURL = "https://www.social-link.xyz"
	}

	signer := common.NewLinkURLSigner([]byte(key), siteURL, common.NewCacheService(300, 600))

	url, err := signer.GenerateLinkURL(os.Args[1], 15*time.Minute)
	if err != nil {
		log.Fatalf("sign link url: %v", err)
	}

	fmt.Println(url)
}
