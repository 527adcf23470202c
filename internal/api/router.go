package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"spendlog/internal/api/handlers"
	"spendlog/internal/auth"
	"spendlog/internal/services"
	"spendlog/internal/session"
	"spendlog/web"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(userService services.UserServiceProvider, expenseService services.ExpenseServiceProvider, sessions session.Manager, secureCookies bool) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, sessions, secureCookies)
	expenseHandler := handlers.NewExpenseHandler(expenseService)

	// Static pages and assets
	r.Get("/", servePage("index.html"))
	r.Get("/register", servePage("register.html"))
	r.Get("/login", servePage("login.html"))
	r.Get("/add_expense.html", servePage("add_expense.html"))
	r.Get("/edit_expense.html", servePage("edit_expense.html"))
	r.Get("/view_expense.html", servePage("view_expense.html"))

	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("Embedded static assets missing")
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Identity
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)
	r.Post("/logout", userHandler.Logout)

	// Expense routes, all owner-scoped behind the session middleware
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(sessions))

		r.Post("/add-expense", expenseHandler.Add)
		r.Get("/expenses", expenseHandler.List)
		r.Get("/api/edit_expense/{id}", expenseHandler.GetForEdit)
		r.Put("/edit-expense/{id}", expenseHandler.Update)
		r.Delete("/delete-expense/{id}", expenseHandler.Delete)
		r.Get("/api/expense", expenseHandler.Total)
	})

	return r
}

func servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := web.PagesFS.ReadFile("pages/" + name)
		if err != nil {
			log.Error().Err(err).Str("page", name).Msg("Embedded page missing")
			http.Error(w, "Page not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}
