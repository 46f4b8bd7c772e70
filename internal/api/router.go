package api

import (
	"net/http"

	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/imaging"
	"github.com/erazemk/packtrack/internal/lifecycle"
)

// Deps are the collaborators the API routes to.
type Deps struct {
	DB        *db.DB
	Lifecycle *lifecycle.Coordinator
	Images    *imaging.Normalizer
	JWTSecret string
	// MaxUploadBytes bounds multipart bodies; 0 selects DefaultMaxUploadBytes.
	MaxUploadBytes int64
	// BcryptCost for new password hashes; 0 selects the default.
	BcryptCost int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	if d.Images == nil {
		d.Images = imaging.New(imaging.Options{})
	}

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, BcryptCost: d.BcryptCost}
	usersHandler := &UsersHandler{DB: d.DB, BcryptCost: d.BcryptCost}
	packsHandler := &PacksHandler{Lifecycle: d.Lifecycle, Images: d.Images, MaxUploadBytes: d.MaxUploadBytes}
	itemsHandler := &ItemsHandler{Lifecycle: d.Lifecycle}
	imagesHandler := &ImagesHandler{Lifecycle: d.Lifecycle}
	transactionsHandler := &TransactionsHandler{Lifecycle: d.Lifecycle}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users.
	mux.Handle("GET /api/users", authMW(http.HandlerFunc(usersHandler.List)))
	mux.Handle("PUT /api/users/{id}", authMW(http.HandlerFunc(usersHandler.Update)))

	// Packs.
	mux.Handle("GET /api/packs", authMW(http.HandlerFunc(packsHandler.List)))
	mux.Handle("POST /api/packs", authMW(http.HandlerFunc(packsHandler.Create)))
	mux.Handle("GET /api/packs/count", authMW(http.HandlerFunc(packsHandler.Count)))
	mux.Handle("GET /api/packs/sold", authMW(http.HandlerFunc(packsHandler.Sold)))
	mux.Handle("PUT /api/packs/{id}", authMW(http.HandlerFunc(packsHandler.Update)))
	mux.Handle("POST /api/packs/{id}/sold", authMW(http.HandlerFunc(packsHandler.MarkSold)))
	mux.Handle("POST /api/packs/{id}/images", authMW(http.HandlerFunc(packsHandler.AddImages)))
	mux.Handle("GET /api/categories", authMW(http.HandlerFunc(packsHandler.Categories)))

	// Items.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/search", authMW(http.HandlerFunc(itemsHandler.Search)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))

	// Images.
	mux.Handle("DELETE /api/images", authMW(http.HandlerFunc(imagesHandler.Delete)))

	// Transactions.
	mux.Handle("GET /api/transactions", authMW(http.HandlerFunc(transactionsHandler.List)))
	mux.Handle("GET /api/transactions/profits", authMW(http.HandlerFunc(transactionsHandler.Profits)))
	mux.Handle("DELETE /api/transactions/{id}", authMW(http.HandlerFunc(transactionsHandler.Delete)))

	return mux
}
