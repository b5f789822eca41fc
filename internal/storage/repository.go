// Package storage implements the dev API server's SQLite persistence.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"floo/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrNameTaken       = errors.New("name already exists")
	ErrUsernameTaken   = errors.New("username already registered")
	ErrEmailTaken      = errors.New("email already registered")
	ErrHasTransactions = errors.New("transactions exist")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

// CreateUser inserts a new account with an already-hashed password.
func (r *Repository) CreateUser(ctx context.Context, in core.UserCreate, passwordHash string) (core.User, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, in.Username).Scan(&count); err != nil {
		return core.User{}, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return core.User{}, ErrUsernameTaken
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, in.Email).Scan(&count); err != nil {
		return core.User{}, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return core.User{}, ErrEmailTaken
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (fullname, username, email, password, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		in.Fullname, in.Username, in.Email, passwordHash, now, now)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}

	return core.User{
		ID:        id,
		Fullname:  in.Fullname,
		Username:  in.Username,
		Email:     in.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetUserByUsername returns the user and its password hash.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, string, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, fullname, username, email, password, is_active, created_at, updated_at
		 FROM users WHERE username = ?`, username)

	var u core.User
	var hash string
	if err := row.Scan(&u.ID, &u.Fullname, &u.Username, &u.Email, &hash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, "", ErrNotFound
		}
		return core.User{}, "", fmt.Errorf("get user by username: %w", err)
	}
	return u, hash, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, fullname, username, email, is_active, created_at, updated_at
		 FROM users WHERE id = ?`, id)

	var u core.User
	if err := row.Scan(&u.ID, &u.Fullname, &u.Username, &u.Email, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// --- banks ---

const bankColumns = `id, name, user_id, color, start_balance, end_balance, created_at, updated_at`

func scanBank(row interface{ Scan(...any) error }) (core.Bank, error) {
	var b core.Bank
	err := row.Scan(&b.ID, &b.Name, &b.UserID, &b.Color, &b.StartBalance, &b.EndBalance, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *Repository) ListBanks(ctx context.Context) ([]core.Bank, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bankColumns+` FROM banks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	var banks []core.Bank
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

func (r *Repository) GetBank(ctx context.Context, id int64) (core.Bank, error) {
	b, err := scanBank(r.db.QueryRowContext(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Bank{}, ErrNotFound
		}
		return core.Bank{}, fmt.Errorf("get bank: %w", err)
	}
	return b, nil
}

// CreateBank inserts a bank with end_balance set equal to start_balance.
func (r *Repository) CreateBank(ctx context.Context, userID int64, in core.BankCreate) (core.Bank, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM banks WHERE name = ?`, in.Name).Scan(&count); err != nil {
		return core.Bank{}, fmt.Errorf("check bank name: %w", err)
	}
	if count > 0 {
		return core.Bank{}, ErrNameTaken
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO banks (name, user_id, color, start_balance, end_balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Name, userID, in.Color, in.StartBalance, in.StartBalance, now, now)
	if err != nil {
		return core.Bank{}, fmt.Errorf("insert bank: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Bank{}, fmt.Errorf("bank id: %w", err)
	}

	return core.Bank{
		ID:           id,
		Name:         in.Name,
		UserID:       userID,
		Color:        in.Color,
		StartBalance: in.StartBalance,
		EndBalance:   in.StartBalance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// UpdateBank applies the fields set in the update input. Changing the start
// balance re-derives the end balance from the bank's transactions.
func (r *Repository) UpdateBank(ctx context.Context, id int64, in core.BankUpdate) (core.Bank, error) {
	bank, err := r.GetBank(ctx, id)
	if err != nil {
		return core.Bank{}, err
	}

	if in.Name != nil && *in.Name != bank.Name {
		var count int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM banks WHERE name = ? AND id != ?`, *in.Name, id).Scan(&count); err != nil {
			return core.Bank{}, fmt.Errorf("check bank name: %w", err)
		}
		if count > 0 {
			return core.Bank{}, ErrNameTaken
		}
		bank.Name = *in.Name
	}
	if in.Color != nil {
		bank.Color = *in.Color
	}
	if in.StartBalance != nil {
		bank.StartBalance = *in.StartBalance
	}

	delta, err := r.bankDelta(ctx, id)
	if err != nil {
		return core.Bank{}, err
	}
	bank.EndBalance = bank.StartBalance + delta
	bank.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`UPDATE banks SET name = ?, color = ?, start_balance = ?, end_balance = ?, updated_at = ? WHERE id = ?`,
		bank.Name, bank.Color, bank.StartBalance, bank.EndBalance, bank.UpdatedAt, id)
	if err != nil {
		return core.Bank{}, fmt.Errorf("update bank: %w", err)
	}
	return bank, nil
}

// DeleteBank refuses to remove a bank that still has transactions.
func (r *Repository) DeleteBank(ctx context.Context, id int64) error {
	if _, err := r.GetBank(ctx, id); err != nil {
		return err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE bank_id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("check bank transactions: %w", err)
	}
	if count > 0 {
		return ErrHasTransactions
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM banks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete bank: %w", err)
	}
	return nil
}

// bankDelta sums the bank's transactions, income positive, expense negative.
func (r *Repository) bankDelta(ctx context.Context, bankID int64) (int64, error) {
	var delta int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN c.is_income = 1 THEN t.amount ELSE -t.amount END), 0)
		 FROM transactions t JOIN categories c ON c.id = t.category_id
		 WHERE t.bank_id = ?`, bankID).Scan(&delta)
	if err != nil {
		return 0, fmt.Errorf("sum bank transactions: %w", err)
	}
	return delta, nil
}

// refreshBankBalance re-derives end_balance after a transaction mutation.
func (r *Repository) refreshBankBalance(ctx context.Context, bankID int64) error {
	delta, err := r.bankDelta(ctx, bankID)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE banks SET end_balance = start_balance + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), bankID)
	if err != nil {
		return fmt.Errorf("refresh bank balance: %w", err)
	}
	return nil
}

// --- categories ---

const categoryColumns = `id, name, is_income, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.Name, &c.IsIncome, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, ErrNotFound
		}
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, in core.CategoryCreate) (core.Category, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, is_income, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		in.Name, in.IsIncome, now, now)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}

	return core.Category{ID: id, Name: in.Name, IsIncome: in.IsIncome, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id int64, in core.CategoryUpdate) (core.Category, error) {
	category, err := r.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}

	incomeChanged := false
	if in.Name != nil {
		category.Name = *in.Name
	}
	if in.IsIncome != nil && *in.IsIncome != category.IsIncome {
		category.IsIncome = *in.IsIncome
		incomeChanged = true
	}
	category.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, is_income = ?, updated_at = ? WHERE id = ?`,
		category.Name, category.IsIncome, category.UpdatedAt, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}

	// Flipping income/expense changes the sign of every transaction in the
	// category, so the affected banks need their balances re-derived.
	if incomeChanged {
		if err := r.refreshBanksForCategory(ctx, id); err != nil {
			return core.Category{}, err
		}
	}
	return category, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := r.GetCategory(ctx, id); err != nil {
		return err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("check category transactions: %w", err)
	}
	if count > 0 {
		return ErrHasTransactions
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (r *Repository) refreshBanksForCategory(ctx context.Context, categoryID int64) error {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT bank_id FROM transactions WHERE category_id = ?`, categoryID)
	if err != nil {
		return fmt.Errorf("banks for category: %w", err)
	}
	defer rows.Close()

	var bankIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan bank id: %w", err)
		}
		bankIDs = append(bankIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range bankIDs {
		if err := r.refreshBankBalance(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// --- transactions ---

const transactionColumns = `id, date, amount, description, category_id, bank_id, user_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var date string
	err := row.Scan(&t.ID, &date, &t.Amount, &t.Description, &t.CategoryID, &t.BankID, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date, err = core.ParseDate(date)
	return t, err
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, userID int64, in core.TransactionCreate) (core.Transaction, error) {
	if _, err := r.GetCategory(ctx, in.CategoryID); err != nil {
		return core.Transaction{}, fmt.Errorf("category %d: %w", in.CategoryID, err)
	}
	if _, err := r.GetBank(ctx, in.BankID); err != nil {
		return core.Transaction{}, fmt.Errorf("bank %d: %w", in.BankID, err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, amount, description, category_id, bank_id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Date.String(), in.Amount, in.Description, in.CategoryID, in.BankID, userID, now, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}

	if err := r.refreshBankBalance(ctx, in.BankID); err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		ID:          id,
		Date:        in.Date,
		Amount:      in.Amount,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		BankID:      in.BankID,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, id int64, in core.TransactionUpdate) (core.Transaction, error) {
	tx, err := r.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	oldBankID := tx.BankID
	if in.Date != nil {
		tx.Date = *in.Date
	}
	if in.Amount != nil {
		tx.Amount = *in.Amount
	}
	if in.Description != nil {
		tx.Description = *in.Description
	}
	if in.CategoryID != nil {
		if _, err := r.GetCategory(ctx, *in.CategoryID); err != nil {
			return core.Transaction{}, fmt.Errorf("category %d: %w", *in.CategoryID, err)
		}
		tx.CategoryID = *in.CategoryID
	}
	if in.BankID != nil {
		if _, err := r.GetBank(ctx, *in.BankID); err != nil {
			return core.Transaction{}, fmt.Errorf("bank %d: %w", *in.BankID, err)
		}
		tx.BankID = *in.BankID
	}
	tx.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, amount = ?, description = ?, category_id = ?, bank_id = ?, updated_at = ? WHERE id = ?`,
		tx.Date.String(), tx.Amount, tx.Description, tx.CategoryID, tx.BankID, tx.UpdatedAt, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if err := r.refreshBankBalance(ctx, tx.BankID); err != nil {
		return core.Transaction{}, err
	}
	if oldBankID != tx.BankID {
		if err := r.refreshBankBalance(ctx, oldBankID); err != nil {
			return core.Transaction{}, err
		}
	}
	return tx, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	tx, err := r.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return r.refreshBankBalance(ctx, tx.BankID)
}
