package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/userhub/apiserver/types"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func userRows(user types.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "is_admin", "password_hash", "created_at", "updated_at",
	}).AddRow(
		user.ID, user.Name, user.Email, user.IsAdmin, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
}

func TestGetByEmail_Found(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	want := types.User{
		ID:           1,
		Name:         "Alice",
		Email:        "a@x.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, is_admin, password_hash, created_at, updated_at")).
		WithArgs("a@x.com").
		WillReturnRows(userRows(want))

	repo := NewUserRepository(db)
	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != want.ID || got.Email != want.Email {
		t.Fatalf("user mismatch: got %+v want %+v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, is_admin, password_hash, created_at, updated_at")).
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepository(db)
	if _, err := repo.GetByID(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_email_key"})

	repo := NewUserRepository(db)
	_, err := repo.Create(context.Background(), types.User{
		Name:         "Alice",
		Email:        "a@x.com",
		PasswordHash: "hash",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("want ErrEmailExists, got %v", err)
	}
}

func TestCreate_AssignsID(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	repo := NewUserRepository(db)
	user, err := repo.Create(context.Background(), types.User{
		Name:         "Alice",
		Email:        "a@x.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if user.ID != 7 {
		t.Fatalf("id mismatch: got %d want 7", user.ID)
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Fatalf("timestamps must be set on create")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	_, err := repo.Update(context.Background(), types.User{ID: 404, Name: "X", Email: "x@x.com"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	if err := repo.Delete(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "name", "email", "is_admin", "password_hash", "created_at", "updated_at",
	}).
		AddRow(1, "Alice", "a@x.com", true, "h1", time.Now(), time.Now()).
		AddRow(2, "Bob", "b@x.com", false, "h2", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, is_admin, password_hash, created_at, updated_at")).
		WillReturnRows(rows)

	repo := NewUserRepository(db)
	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("want 2 users, got %d", len(users))
	}
	if !users[0].IsAdmin || users[1].IsAdmin {
		t.Fatalf("admin flags scanned wrong: %+v", users)
	}
}
