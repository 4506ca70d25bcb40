package backend

import (
	"context"
	"path/filepath"
	"testing"

	"ledger/internal/config"
	"ledger/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	got, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Kind != SQLite || got.SQLiteDBPath != "x.db" {
		t.Fatalf("FromAppConfig() = %+v", got)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "memory", config: Config{Kind: Memory}},
		{name: "sqlite", config: Config{Kind: SQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")}},
		{name: "sqlite without path", config: Config{Kind: SQLite}, wantErr: true},
		{name: "unknown", config: Config{Kind: "sheets"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			opened, err := Open(ctx, tt.config, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer opened.Close()

			tx := core.Transaction{
				ID: "b1", Date: core.NewDate(2024, 1, 1), Time: "09:00", Amount: core.MustMoney("1"),
				Kind: core.Credit, PaymentMode: core.Cash, Counterparty: "A", Remarks: "r",
			}
			if err := opened.Store.Put(ctx, tx); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			all, err := opened.Store.GetAll(ctx)
			if err != nil || len(all) != 1 {
				t.Fatalf("GetAll() = %v, %v", all, err)
			}
		})
	}
}

func TestOpenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Open(ctx, Config{Kind: Memory}, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
