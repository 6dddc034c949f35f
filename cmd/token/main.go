// Command token mints a principal access token for front-desk devices and
// local testing.
package main

import (
	"flag"
	"fmt"
	"os"

	"gymgate/internal/auth"
	"gymgate/internal/config"
)

func main() {
	account := flag.String("account", "", "account id (token subject)")
	branch := flag.String("branch", "", "branch id")
	role := flag.String("role", auth.RoleMember, "member, trainer, staff or admin")
	ttl := flag.Duration("ttl", auth.AccessTokenTTL, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	p := auth.Principal{AccountID: *account, BranchID: *branch, Role: *role}
	if !auth.ValidRole(p.Role) {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", p.Role)
		os.Exit(2)
	}

	token, err := auth.GenerateAccessToken(p, cfg.JWTSecret, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
