// Command tokengen prints an access token for local testing of the API.
//
//	tokengen -user 1 -role CUSTOMER -ttl 2h
//
// The signing secret is JWT_SECRET, read from the environment or .env.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking-core/internal/config"
	"github.com/iliyamo/cinema-booking-core/internal/middleware"
	"github.com/iliyamo/cinema-booking-core/internal/utils"
)

func main() {
	userID := flag.Uint64("user", 1, "user id placed in the sub claim")
	role := flag.String("role", middleware.RoleCustomer, "OWNER or CUSTOMER")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fail(err)
	}
	r := strings.ToUpper(*role)
	if r != middleware.RoleOwner && r != middleware.RoleCustomer {
		fail(fmt.Errorf("unknown role %q", *role))
	}
	tok, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *userID, r, *ttl)
	if err != nil {
		fail(err)
	}
	fmt.Println(tok.Token)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "tokengen:", err)
	os.Exit(1)
}
