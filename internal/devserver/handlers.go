// Package devserver is a self-contained local implementation of the Floo
// API contract, used for development and end-to-end tests: SQLite storage,
// bcrypt passwords and signed bearer tokens.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"floo/internal/core"
	"floo/internal/log"
	"floo/internal/storage"
)

const userContextKey contextKey = "user"

// Server holds the handler dependencies.
type Server struct {
	repo   *storage.Repository
	tokens *TokenIssuer
	logger *log.Logger
}

// NewHandler builds the complete API handler.
func NewHandler(repo *storage.Repository, tokens *TokenIssuer, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentDevServer)
	}
	s := &Server{repo: repo, tokens: tokens, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/banks/", s.requireAuth(s.handleBanks))
	mux.HandleFunc("/categories/", s.requireAuth(s.handleCategories))
	mux.HandleFunc("/transactions/", s.requireAuth(s.handleTransactions))

	return traceMiddleware(headersMiddleware(mux))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// --- request/response plumbing ---

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondDetail writes the FastAPI-style error body {"detail": ...}.
func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	respondDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// pathID extracts the trailing numeric id from e.g. /banks/7.
func pathID(path, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- auth ---

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        core.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid form body")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, hash, err := s.repo.GetUserByUsername(r.Context(), username)
	if err != nil || !CheckPassword(hash, password) {
		respondDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if !user.IsActive {
		respondDetail(w, http.StatusUnauthorized, "Inactive user")
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "issue token", log.FieldError, err.Error())
		respondDetail(w, http.StatusInternalServerError, "An error occurred during login")
		return
	}

	s.logger.InfoContext(r.Context(), "user logged in",
		log.FieldRequestID, requestID(r.Context()),
		log.FieldUsername, user.Username)
	respondJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer", User: user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var in core.UserCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		respondDetail(w, http.StatusInternalServerError, "An error occurred during registration")
		return
	}

	user, err := s.repo.CreateUser(r.Context(), in, hash)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUsernameTaken):
			respondDetail(w, http.StatusBadRequest, "Username already registered")
		case errors.Is(err, storage.ErrEmailTaken):
			respondDetail(w, http.StatusBadRequest, "Email already registered")
		default:
			s.logger.ErrorContext(r.Context(), "create user", log.FieldError, err.Error())
			respondDetail(w, http.StatusInternalServerError, "An error occurred during registration")
		}
		return
	}

	s.logger.InfoContext(r.Context(), "user registered",
		log.FieldRequestID, requestID(r.Context()),
		log.FieldUsername, user.Username)
	respondJSON(w, http.StatusOK, user)
}

// requireAuth validates the bearer token and loads the user into context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if header == "" || len(parts) != 2 || parts[0] != "Bearer" {
			respondDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		userID, err := s.tokens.Verify(parts[1])
		if err != nil {
			respondDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		user, err := s.repo.GetUser(r.Context(), userID)
		if err != nil {
			respondDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if !user.IsActive {
			respondDetail(w, http.StatusUnauthorized, "Inactive user")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

func currentUser(r *http.Request) core.User {
	user, _ := r.Context().Value(userContextKey).(core.User)
	return user
}

// --- banks ---

func (s *Server) handleBanks(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/banks/" {
		switch r.Method {
		case http.MethodGet:
			banks, err := s.repo.ListBanks(r.Context())
			if err != nil {
				respondDetail(w, http.StatusInternalServerError, "Error retrieving banks")
				return
			}
			respondJSON(w, http.StatusOK, emptyAsList(banks))
		case http.MethodPost:
			var in core.BankCreate
			if !decodeJSON(w, r, &in) {
				return
			}
			if err := in.Validate(); err != nil {
				respondDetail(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			bank, err := s.repo.CreateBank(r.Context(), currentUser(r).ID, in)
			if err != nil {
				if errors.Is(err, storage.ErrNameTaken) {
					respondDetail(w, http.StatusBadRequest, "Bank with this name already exists")
					return
				}
				respondDetail(w, http.StatusInternalServerError, "Error creating bank account")
				return
			}
			respondJSON(w, http.StatusOK, bank)
		default:
			methodNotAllowed(w)
		}
		return
	}

	id, ok := pathID(r.URL.Path, "/banks/")
	if !ok {
		respondDetail(w, http.StatusNotFound, "Bank not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		bank, err := s.repo.GetBank(r.Context(), id)
		if err != nil {
			respondBankError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, bank)
	case http.MethodPatch:
		var in core.BankUpdate
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := in.Validate(); err != nil {
			respondDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		bank, err := s.repo.UpdateBank(r.Context(), id, in)
		if err != nil {
			if errors.Is(err, storage.ErrNameTaken) {
				respondDetail(w, http.StatusBadRequest, "Bank with this name already exists")
				return
			}
			respondBankError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, bank)
	case http.MethodDelete:
		if err := s.repo.DeleteBank(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrHasTransactions) {
				respondDetail(w, http.StatusBadRequest, "Cannot delete bank: transactions exist")
				return
			}
			respondBankError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "Bank deleted successfully"})
	default:
		methodNotAllowed(w)
	}
}

func respondBankError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respondDetail(w, http.StatusNotFound, "Bank not found")
		return
	}
	respondDetail(w, http.StatusInternalServerError, "Error processing bank")
}

// --- categories ---

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/categories/" {
		switch r.Method {
		case http.MethodGet:
			categories, err := s.repo.ListCategories(r.Context())
			if err != nil {
				respondDetail(w, http.StatusInternalServerError, "Error retrieving categories")
				return
			}
			respondJSON(w, http.StatusOK, emptyAsList(categories))
		case http.MethodPost:
			var in core.CategoryCreate
			if !decodeJSON(w, r, &in) {
				return
			}
			if err := in.Validate(); err != nil {
				respondDetail(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			category, err := s.repo.CreateCategory(r.Context(), in)
			if err != nil {
				respondDetail(w, http.StatusInternalServerError, "Error creating category")
				return
			}
			respondJSON(w, http.StatusOK, category)
		default:
			methodNotAllowed(w)
		}
		return
	}

	id, ok := pathID(r.URL.Path, "/categories/")
	if !ok {
		respondDetail(w, http.StatusNotFound, "Category not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		category, err := s.repo.GetCategory(r.Context(), id)
		if err != nil {
			respondCategoryError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, category)
	case http.MethodPatch:
		var in core.CategoryUpdate
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := in.Validate(); err != nil {
			respondDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		category, err := s.repo.UpdateCategory(r.Context(), id, in)
		if err != nil {
			respondCategoryError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, category)
	case http.MethodDelete:
		if err := s.repo.DeleteCategory(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrHasTransactions) {
				respondDetail(w, http.StatusBadRequest, "Cannot delete category: transactions exist")
				return
			}
			respondCategoryError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
	default:
		methodNotAllowed(w)
	}
}

func respondCategoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respondDetail(w, http.StatusNotFound, "Category not found")
		return
	}
	respondDetail(w, http.StatusInternalServerError, "Error processing category")
}

// --- transactions ---

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/transactions/" {
		switch r.Method {
		case http.MethodGet:
			transactions, err := s.repo.ListTransactions(r.Context())
			if err != nil {
				respondDetail(w, http.StatusInternalServerError, "Error retrieving transactions")
				return
			}
			respondJSON(w, http.StatusOK, emptyAsList(transactions))
		case http.MethodPost:
			var in core.TransactionCreate
			if !decodeJSON(w, r, &in) {
				return
			}
			if err := in.Validate(); err != nil {
				respondDetail(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			tx, err := s.repo.CreateTransaction(r.Context(), currentUser(r).ID, in)
			if err != nil {
				respondTransactionError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, tx)
		default:
			methodNotAllowed(w)
		}
		return
	}

	id, ok := pathID(r.URL.Path, "/transactions/")
	if !ok {
		respondDetail(w, http.StatusNotFound, "Transaction not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		tx, err := s.repo.GetTransaction(r.Context(), id)
		if err != nil {
			respondTransactionError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, tx)
	case http.MethodPatch:
		var in core.TransactionUpdate
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := in.Validate(); err != nil {
			respondDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		tx, err := s.repo.UpdateTransaction(r.Context(), id, in)
		if err != nil {
			respondTransactionError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, tx)
	case http.MethodDelete:
		if err := s.repo.DeleteTransaction(r.Context(), id); err != nil {
			respondTransactionError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
	default:
		methodNotAllowed(w)
	}
}

func respondTransactionError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		switch notFoundEntity(err) {
		case "category":
			respondDetail(w, http.StatusNotFound, "Category not found")
		case "bank":
			respondDetail(w, http.StatusNotFound, "Bank not found")
		default:
			respondDetail(w, http.StatusNotFound, "Transaction not found")
		}
		return
	}
	respondDetail(w, http.StatusInternalServerError, "Error processing transaction")
}

// notFoundEntity names the missing record a transaction mutation referenced.
func notFoundEntity(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "category"):
		return "category"
	case strings.HasPrefix(msg, "bank"):
		return "bank"
	default:
		return "transaction"
	}
}

// emptyAsList keeps empty collections serializing as [] instead of null.
func emptyAsList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
