package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"floo/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func createTestUser(t *testing.T, repo *Repository) core.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), core.UserCreate{
		Fullname: "Test User",
		Username: "testuser",
		Email:    "test@example.com",
		IsActive: true,
	}, "hashed-password")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func createTestBank(t *testing.T, repo *Repository, userID int64, name string, start int64) core.Bank {
	t.Helper()
	bank, err := repo.CreateBank(context.Background(), userID, core.BankCreate{
		Name: name, Color: "#1f77b4", StartBalance: start,
	})
	if err != nil {
		t.Fatalf("CreateBank() error = %v", err)
	}
	return bank
}

func createTestCategory(t *testing.T, repo *Repository, name string, isIncome bool) core.Category {
	t.Helper()
	category, err := repo.CreateCategory(context.Background(), core.CategoryCreate{
		Name: name, IsIncome: isIncome,
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return category
}

func TestRepository_Users(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := createTestUser(t, repo)
	if user.ID == 0 {
		t.Error("CreateUser() should assign an ID")
	}

	got, hash, err := repo.GetUserByUsername(ctx, "testuser")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if got.ID != user.ID || hash != "hashed-password" {
		t.Errorf("GetUserByUsername() = %+v hash %q, want the stored pair", got, hash)
	}

	if _, _, err := repo.GetUserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByUsername(missing) error = %v, want %v", err, ErrNotFound)
	}

	t.Run("duplicate username", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, core.UserCreate{
			Fullname: "Other", Username: "testuser", Email: "other@example.com", IsActive: true,
		}, "h")
		if !errors.Is(err, ErrUsernameTaken) {
			t.Errorf("CreateUser() error = %v, want %v", err, ErrUsernameTaken)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, core.UserCreate{
			Fullname: "Other", Username: "other", Email: "test@example.com", IsActive: true,
		}, "h")
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("CreateUser() error = %v, want %v", err, ErrEmailTaken)
		}
	})
}

func TestRepository_Banks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo)

	bank := createTestBank(t, repo, user.ID, "BCA", 500000)
	if bank.EndBalance != 500000 {
		t.Errorf("new bank EndBalance = %d, want the start balance", bank.EndBalance)
	}

	banks, err := repo.ListBanks(ctx)
	if err != nil {
		t.Fatalf("ListBanks() error = %v", err)
	}
	if len(banks) != 1 {
		t.Fatalf("ListBanks() returned %d banks, want 1", len(banks))
	}

	t.Run("duplicate name", func(t *testing.T) {
		_, err := repo.CreateBank(ctx, user.ID, core.BankCreate{Name: "BCA", Color: "#fff"})
		if !errors.Is(err, ErrNameTaken) {
			t.Errorf("CreateBank() error = %v, want %v", err, ErrNameTaken)
		}
	})

	t.Run("partial update", func(t *testing.T) {
		name := "BCA Tabungan"
		updated, err := repo.UpdateBank(ctx, bank.ID, core.BankUpdate{Name: &name})
		if err != nil {
			t.Fatalf("UpdateBank() error = %v", err)
		}
		if updated.Name != "BCA Tabungan" {
			t.Errorf("Name = %q, want the new name", updated.Name)
		}
		if updated.StartBalance != 500000 || updated.Color != "#1f77b4" {
			t.Error("unset fields must keep their values")
		}
	})

	t.Run("start balance update recomputes end balance", func(t *testing.T) {
		start := int64(600000)
		updated, err := repo.UpdateBank(ctx, bank.ID, core.BankUpdate{StartBalance: &start})
		if err != nil {
			t.Fatalf("UpdateBank() error = %v", err)
		}
		if updated.EndBalance != 600000 {
			t.Errorf("EndBalance = %d, want 600000", updated.EndBalance)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.DeleteBank(ctx, bank.ID); err != nil {
			t.Fatalf("DeleteBank() error = %v", err)
		}
		if _, err := repo.GetBank(ctx, bank.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetBank(deleted) error = %v, want %v", err, ErrNotFound)
		}
	})
}

func TestRepository_Transactions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo)
	bank := createTestBank(t, repo, user.ID, "BCA", 500000)
	expense := createTestCategory(t, repo, "Groceries", false)
	income := createTestCategory(t, repo, "Salary", true)

	tx, err := repo.CreateTransaction(ctx, user.ID, core.TransactionCreate{
		Date:        core.NewDate(2026, 2, 1),
		Amount:      75000,
		Description: "weekly groceries",
		CategoryID:  expense.ID,
		BankID:      bank.ID,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if tx.Date.String() != "2026-02-01" {
		t.Errorf("Date = %s, want 2026-02-01", tx.Date)
	}

	t.Run("expense lowers end balance", func(t *testing.T) {
		got, err := repo.GetBank(ctx, bank.ID)
		if err != nil {
			t.Fatalf("GetBank() error = %v", err)
		}
		if got.EndBalance != 425000 {
			t.Errorf("EndBalance = %d, want 425000", got.EndBalance)
		}
	})

	t.Run("income raises end balance", func(t *testing.T) {
		_, err := repo.CreateTransaction(ctx, user.ID, core.TransactionCreate{
			Date:        core.NewDate(2026, 2, 2),
			Amount:      1000000,
			Description: "february salary",
			CategoryID:  income.ID,
			BankID:      bank.ID,
		})
		if err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
		got, _ := repo.GetBank(ctx, bank.ID)
		if got.EndBalance != 1425000 {
			t.Errorf("EndBalance = %d, want 1425000", got.EndBalance)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := repo.CreateTransaction(ctx, user.ID, core.TransactionCreate{
			Date:        core.NewDate(2026, 2, 3),
			Amount:      100,
			Description: "bad",
			CategoryID:  9999,
			BankID:      bank.ID,
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("CreateTransaction() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("update amount refreshes balance", func(t *testing.T) {
		amount := int64(100000)
		if _, err := repo.UpdateTransaction(ctx, tx.ID, core.TransactionUpdate{Amount: &amount}); err != nil {
			t.Fatalf("UpdateTransaction() error = %v", err)
		}
		got, _ := repo.GetBank(ctx, bank.ID)
		if got.EndBalance != 1400000 {
			t.Errorf("EndBalance = %d, want 1400000", got.EndBalance)
		}
	})

	t.Run("move to another bank refreshes both", func(t *testing.T) {
		other := createTestBank(t, repo, user.ID, "Mandiri", 0)
		if _, err := repo.UpdateTransaction(ctx, tx.ID, core.TransactionUpdate{BankID: &other.ID}); err != nil {
			t.Fatalf("UpdateTransaction() error = %v", err)
		}

		from, _ := repo.GetBank(ctx, bank.ID)
		to, _ := repo.GetBank(ctx, other.ID)
		if from.EndBalance != 1500000 {
			t.Errorf("source EndBalance = %d, want 1500000", from.EndBalance)
		}
		if to.EndBalance != -100000 {
			t.Errorf("target EndBalance = %d, want -100000", to.EndBalance)
		}
	})

	t.Run("delete refreshes balance", func(t *testing.T) {
		if err := repo.DeleteTransaction(ctx, tx.ID); err != nil {
			t.Fatalf("DeleteTransaction() error = %v", err)
		}
		if _, err := repo.GetTransaction(ctx, tx.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetTransaction(deleted) error = %v, want %v", err, ErrNotFound)
		}
	})
}

func TestRepository_ReferentialIntegrity(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo)
	bank := createTestBank(t, repo, user.ID, "BCA", 0)
	category := createTestCategory(t, repo, "Groceries", false)

	if _, err := repo.CreateTransaction(ctx, user.ID, core.TransactionCreate{
		Date:        core.NewDate(2026, 2, 1),
		Amount:      100,
		Description: "groceries",
		CategoryID:  category.ID,
		BankID:      bank.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := repo.DeleteBank(ctx, bank.ID); !errors.Is(err, ErrHasTransactions) {
		t.Errorf("DeleteBank() error = %v, want %v", err, ErrHasTransactions)
	}
	if err := repo.DeleteCategory(ctx, category.ID); !errors.Is(err, ErrHasTransactions) {
		t.Errorf("DeleteCategory() error = %v, want %v", err, ErrHasTransactions)
	}
}

func TestRepository_CategoryFlipRefreshesBanks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo)
	bank := createTestBank(t, repo, user.ID, "BCA", 0)
	category := createTestCategory(t, repo, "Refunds", false)

	if _, err := repo.CreateTransaction(ctx, user.ID, core.TransactionCreate{
		Date:        core.NewDate(2026, 2, 1),
		Amount:      50000,
		Description: "store refund",
		CategoryID:  category.ID,
		BankID:      bank.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	isIncome := true
	if _, err := repo.UpdateCategory(ctx, category.ID, core.CategoryUpdate{IsIncome: &isIncome}); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}

	got, err := repo.GetBank(ctx, bank.ID)
	if err != nil {
		t.Fatalf("GetBank() error = %v", err)
	}
	if got.EndBalance != 50000 {
		t.Errorf("EndBalance = %d, want 50000 after the category became income", got.EndBalance)
	}
}
