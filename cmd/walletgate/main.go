package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"log"
	"os"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/keel-labs/walletgate/adapters/events"
	"github.com/keel-labs/walletgate/adapters/store"
	"github.com/keel-labs/walletgate/adapters/tokenizer"
	"github.com/keel-labs/walletgate/internal/eth"
	"github.com/keel-labs/walletgate/internal/obs"
	"github.com/keel-labs/walletgate/ports"
	"github.com/keel-labs/walletgate/service"
	"github.com/keel-labs/walletgate/siwe"
	httptransport "github.com/keel-labs/walletgate/transport/http"
)

func main() {
	ctx := context.Background()

	// Generate a new ECDSA key pair for access tokens (you would normally
	// load this from somewhere secure)
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatalf("Failed to generate signing key: %v", err)
	}

	obs.Init()

	identityStore, redisClient := buildStore(ctx)

	var eventPub ports.EventPublisher
	if redisClient != nil {
		logger := watermill.NewStdLogger(false, false)
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
		eventPub = events.NewWatermillPublisher(publisher)
	}

	builder := siwe.NewBuilder()
	if statement := os.Getenv("AUTH_STATEMENT"); statement != "" {
		builder.Statement = statement
	}
	if chainID := os.Getenv("AUTH_CHAIN_ID"); chainID != "" {
		id, err := strconv.Atoi(chainID)
		if err != nil {
			log.Fatalf("Invalid AUTH_CHAIN_ID: %v", err)
		}
		builder.DefaultChainID = id
	}

	verifier := service.NewSignatureVerifier(eth.Recoverer{})
	resolver := service.NewAccountResolver(identityStore)
	authService := service.NewAuthService(builder, verifier, resolver, eventPub)
	roleAuthority := service.NewRoleAuthority(identityStore, eventPub)
	accessTokenizer := tokenizer.NewJWTTokenizer(signKey)

	router := httptransport.SetupRouter(authService, roleAuthority, accessTokenizer)

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildStore selects the identity store: Postgres when DATABASE_URL is set,
// else Redis when REDIS_URL is set, else in-memory. The Redis client is also
// returned so the event publisher can share it.
func buildStore(ctx context.Context) (ports.IdentityStore, *redis.Client) {
	var redisClient *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pg, err := store.OpenPostgres(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to open Postgres store: %v", err)
		}
		return pg, redisClient
	}

	if redisClient != nil {
		return store.NewRedisStore(redisClient), redisClient
	}

	log.Println("No DATABASE_URL or REDIS_URL set, using in-memory identity store")
	return store.NewMemoryStore(), nil
}
