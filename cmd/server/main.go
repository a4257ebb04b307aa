package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/happyshelf/backend/internal/auth"
	"github.com/happyshelf/backend/internal/config"
	"github.com/happyshelf/backend/internal/inventory"
	"github.com/happyshelf/backend/internal/middleware"
	"github.com/happyshelf/backend/internal/store"
)

// stores bundles the two capability interfaces a backend must provide.
type stores struct {
	users store.UserStore
	items store.ItemStore
	close func()
}

// openStores picks the storage backend from configuration: Postgres when a
// DSN is set, else Mongo when a URI is set, else the in-memory dev store.
// An unreachable database degrades to the dev store instead of failing
// startup.
func openStores(ctx context.Context, cfg *config.Config) stores {
	if cfg.PostgresDSN != "" {
		s, err := openPostgres(ctx, cfg.PostgresDSN)
		if err == nil {
			log.Println("using PostgreSQL storage backend")
			return s
		}
		log.Printf("postgres unavailable, falling back to in-memory store: %v", err)
	} else if cfg.MongoURI != "" {
		s, err := openMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err == nil {
			log.Println("using MongoDB storage backend")
			return s
		}
		log.Printf("mongodb unavailable, falling back to in-memory store: %v", err)
	} else {
		log.Println("no database configured, using in-memory store (dev mode, contents lost on restart)")
	}

	mem := store.NewMemoryStore()
	return stores{users: mem, items: mem, close: func() {}}
}

func openPostgres(ctx context.Context, dsn string) (stores, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return stores{}, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return stores{}, err
	}
	pg := store.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return stores{}, err
	}
	return stores{users: pg, items: pg, close: pool.Close}, nil
}

func openMongo(ctx context.Context, uri, dbName string) (stores, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return stores{}, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return stores{}, err
	}
	ms := store.NewMongoStore(client.Database(dbName))
	if err := ms.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return stores{}, err
	}
	return stores{users: ms, items: ms, close: func() { client.Disconnect(context.Background()) }}, nil
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	st := openStores(ctx, cfg)
	defer st.close()

	// Redis is optional; without it logout is a client-side no-op.
	var denylist *auth.Denylist
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("redis unavailable, token revocation disabled: %v", err)
		} else {
			defer rdb.Close()
			denylist = auth.NewDenylist(rdb)
		}
	}

	tokens := auth.NewTokenService(cfg.JWTSecret)
	authHandler := auth.NewHandler(st.users, tokens, denylist)
	invHandler := inventory.NewHandler(st.items, inventory.MetricsConfig{
		SavingsPerItem:  cfg.SavingsPerItem,
		CarbonPerItemKg: cfg.CarbonPerItemKg,
	})

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens, denylist))
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
	})

	r.Route("/inventory", func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, denylist))
		r.Get("/items", invHandler.List)
		r.Post("/items", invHandler.Create)
		r.Put("/items/{id}", invHandler.Update)
		r.Delete("/items/{id}", invHandler.Delete)
		r.Get("/stats", invHandler.Stats)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("HappyShelf API listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
