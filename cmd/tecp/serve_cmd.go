package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"time"

	"tecpd/internal/config"
	"tecpd/internal/domain"
	"tecpd/internal/infra/cachemem"
	"tecpd/internal/infra/crypto"
	"tecpd/internal/infra/db"
	httpserver "tecpd/internal/infra/http"
	"tecpd/internal/infra/keys/soft"
	"tecpd/internal/infra/logclient"
	"tecpd/internal/infra/logdb"
	"tecpd/internal/infra/logmem"
	"tecpd/internal/infra/policyopa"
	"tecpd/internal/infra/ratelimit"
	"tecpd/internal/usecase"
)

const signatureCacheTTL = 5 * time.Minute

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var listenAddr string
	fs.StringVar(&listenAddr, "listen", "", "listen address (overrides TECP_LISTEN_ADDR)")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.FromEnv()
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	keys, err := soft.NewManagerFromConfig(cfg)
	if err != nil {
		// No configured key: run with an ephemeral one. Receipts signed
		// with it stop verifying once the process exits.
		keys, err = soft.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate signing key: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "serve: no signing key configured, using ephemeral key %s\n",
			base64.StdEncoding.EncodeToString(keys.PublicKey()))
	}

	cryptoSvc := crypto.NewService()

	var journal domain.ReceiptJournal
	var log domain.TransparencyLog
	if cfg.DatabaseDSN != "" {
		conn, err := db.Open(cfg.DatabaseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			return 1
		}
		if err := db.Migrate(conn); err != nil {
			fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
			return 1
		}
		journal = db.NewReceiptRepository(conn)
		log, err = logdb.Open(context.Background(), db.NewLogRepository(conn))
		if err != nil {
			fmt.Fprintf(os.Stderr, "rebuild transparency log: %v\n", err)
			return 1
		}
	} else {
		log = logmem.New()
	}

	create := &usecase.CreateReceipt{
		Crypto:     cryptoSvc,
		PrivateKey: keys.PrivateKey(),
	}
	verify := &usecase.VerifyReceipt{
		Crypto:   cryptoSvc,
		SigCache: cachemem.New(signatureCacheTTL),
	}

	verifyDefaults := usecase.VerifyOptions{}
	if cfg.LogRootURL != "" {
		verify.LogRoots = logclient.New(cfg.LogRootURL, cfg.LogRootTimeout)
		verifyDefaults.Online = true
		verifyDefaults.Strict = cfg.LogStrict
	} else {
		verify.LogRoots = log
	}

	var limiter domain.RateLimiter
	if cfg.RedisAddr != "" {
		limiter, err = ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, time.Now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect redis: %v\n", err)
			return 1
		}
	} else {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
	}

	var policy domain.PolicyRegistry
	if cfg.PolicyBundlePath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(context.Background(), cfg.PolicyBundlePath, cfg.PolicyBundleID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load policy bundle: %v\n", err)
			return 1
		}
		policy = engine
	}

	server := httpserver.NewServer(httpserver.Options{
		Create:            create,
		Verify:            verify,
		Crypto:            cryptoSvc,
		Log:               log,
		Journal:           journal,
		Policy:            policy,
		RateLimiter:       limiter,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		VerifyDefaults:    verifyDefaults,
	})

	fmt.Fprintf(os.Stderr, "serve: listening on %s (pubkey %s)\n",
		cfg.ListenAddr, base64.StdEncoding.EncodeToString(keys.PublicKey()))
	if err := server.Run(cfg.ListenAddr); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		return 1
	}
	return 0
}
