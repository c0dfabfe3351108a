// Command token mints an operator API access token.
//
// Usage:
//
//	token --role=admin --subject=<uuid> --ttl=24h
//
// Requires AUTH_JWT_SECRET; AUTH_JWT_ISSUER defaults to "dcb".
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/auth"
)

func main() {
	role := flag.String("role", auth.RoleOperator, "operator role: operator or admin")
	subject := flag.String("subject", "", "operator id (random when empty)")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		log.Fatal("AUTH_JWT_SECRET environment variable is required")
	}
	issuer := os.Getenv("AUTH_JWT_ISSUER")
	if issuer == "" {
		issuer = "dcb"
	}

	id := uuid.New()
	if *subject != "" {
		parsed, err := uuid.Parse(*subject)
		if err != nil {
			log.Fatalf("invalid subject: %v", err)
		}
		id = parsed
	}

	token, err := auth.NewJWTManager(secret, issuer, *ttl).GenerateAccessToken(id, *role)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "operator %s, role %s, expires in %s\n", id, *role, *ttl)
	fmt.Println(token)
}
