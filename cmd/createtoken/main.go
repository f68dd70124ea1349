package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"presensi.app/presensi/config"
	"presensi.app/presensi/security"
)

func main() {
	userID := flag.Uint("user", 0, "user id (token subject)")
	role := flag.String("role", "member", "member or admin")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == 0 {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	secret, err := security.DecodeSecret(os.Getenv("PRESENSI_SIGNING_SECRET"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	token, err := security.CreateIdentityToken(security.Identity{
		UserID: *userID,
		Role:   security.ParseRole(*role),
	}, secret, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
