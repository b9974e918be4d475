// Command devicetoken mints a bearer token for a phone-side bridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/yanqian/gaptime-companion/internal/domain/auth"
	"github.com/yanqian/gaptime-companion/internal/infra/config"
	"github.com/yanqian/gaptime-companion/pkg/logger"
)

func main() {
	deviceID := flag.String("device", "", "device identifier embedded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.tokenTtl)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	authCfg := auth.Config{Secret: cfg.Auth.Secret, TokenTTL: cfg.Auth.TokenTTL}
	if *ttl > 0 {
		authCfg.TokenTTL = *ttl
	}
	if !authCfg.Enabled() {
		log.Fatal("auth.secret is empty; event routes are unauthenticated")
	}

	svc := auth.NewService(authCfg, logger.New())
	token, err := svc.Issue(context.Background(), *deviceID)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
