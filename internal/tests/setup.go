package tests

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
)

const (
	// MigrationDir is the path to migrations relative to the module root.
	MigrationDir = "internal/db/migrations"
	// MigrationDirFromInternalTests is used when go test ./... runs tests from internal/tests.
	MigrationDirFromInternalTests = "../../internal/db/migrations"
)

// ResolveMigrationDir returns the first existing of the candidate migration
// directories, or empty string if none exists.
func ResolveMigrationDir() string {
	for _, dir := range []string{MigrationDir, MigrationDirFromInternalTests} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}
	return ""
}

// RunMigrations runs goose Up using the resolved migration directory.
func RunMigrations(db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	dir := ResolveMigrationDir()
	if dir == "" {
		return fmt.Errorf("migrations directory not found (tried %q, %q); run tests from the module root", MigrationDir, MigrationDirFromInternalTests)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// TruncateAll truncates every application table for a clean test state.
func TruncateAll(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE water_logs, reminders, otp_codes, users RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// fakeProvider is a scripted OTP provider for integration tests. It issues
// sequential request handles and accepts only AcceptCode.
type fakeProvider struct {
	mu         sync.Mutex
	seq        int
	AcceptCode string
	LastReqID  string
}

func (f *fakeProvider) SendOTP(ctx context.Context, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.LastReqID = fmt.Sprintf("REQ%d", f.seq)
	return f.LastReqID, nil
}

func (f *fakeProvider) VerifyOTP(ctx context.Context, reqID, code string) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code == f.AcceptCode {
		return true, "OTP verified successfully", nil
	}
	return false, "OTP mismatch", nil
}

func (f *fakeProvider) RetryOTP(ctx context.Context, reqID, channel string) error {
	return nil
}
