package app

import (
	"testing"

	"go.uber.org/zap"

	"deviceloan/config"
	"deviceloan/store"
)

func TestPickGateway(t *testing.T) {
	zlog := zap.NewNop()

	if _, ok := pickGateway(config.Config{SheetsURL: "https://script.example/exec"}, zlog).(*store.SheetsGateway); !ok {
		t.Fatal("configured sheets URL must select the sheets gateway")
	}
	// The sheets backend wins when both stores are configured.
	if _, ok := pickGateway(config.Config{
		SheetsURL:   "https://script.example/exec",
		DatabaseURL: "postgres://ignored",
	}, zlog).(*store.SheetsGateway); !ok {
		t.Fatal("sheets URL must take precedence over the database DSN")
	}
	if _, ok := pickGateway(config.Config{}, zlog).(*store.MemoryGateway); !ok {
		t.Fatal("unset store config must fall back to the demo gateway")
	}
}
