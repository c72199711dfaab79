package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Record is one row of the generic collection table the postgres gateway
// keeps. Collections stay schemaless JSON so the sheet and postgres backends
// are interchangeable behind the same contract.
type Record struct {
	Collection string `gorm:"primaryKey;size:64"`
	RecordID   string `gorm:"primaryKey;size:128"`
	Payload    []byte `gorm:"type:jsonb;not null"`
}

func (Record) TableName() string { return "loan_records" }

// PostgresGateway implements the gateway contract on a relational store, for
// deployments migrating off the spreadsheet. uploadFile stays with the drive
// API and is not served here.
type PostgresGateway struct {
	DB *gorm.DB
}

func ConnectPostgres(dsn string) (*PostgresGateway, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresGateway{DB: db}, nil
}

// primaryKeyField is the payload key records are addressed by. Only History
// deviates from plain "id".
func primaryKeyField(collection string) string {
	if collection == History {
		return "historyId"
	}
	return "id"
}

func payloadMap(payload any) (map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (g *PostgresGateway) Invoke(ctx context.Context, action Action, collection string, payload any) (*Result, error) {
	switch action {
	case ActionRead:
		return g.read(ctx, collection)
	case ActionAppend:
		return g.append(ctx, collection, payload)
	case ActionUpdate:
		return g.update(ctx, collection, payload)
	case ActionDelete:
		return g.delete(ctx, collection, payload)
	case ActionUploadFile:
		return &Result{Success: false, Error: "uploadFile is not supported by the postgres store"}, nil
	}
	return &Result{Success: false, Error: fmt.Sprintf("unknown action %q", action)}, nil
}

func (g *PostgresGateway) read(ctx context.Context, collection string) (*Result, error) {
	var rows []Record
	if err := g.DB.WithContext(ctx).
		Where("collection = ?", collection).
		Order("record_id").
		Find(&rows).Error; err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	items := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		items = append(items, json.RawMessage(r.Payload))
	}
	data, err := json.Marshal(items)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	return &Result{Success: true, Data: data}, nil
}

func (g *PostgresGateway) append(ctx context.Context, collection string, payload any) (*Result, error) {
	m, err := payloadMap(payload)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	key := primaryKeyField(collection)
	id, _ := m[key].(string)
	if id == "" {
		id = uuid.NewString()
		m[key] = id
	}
	b, err := json.Marshal(m)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	rec := Record{Collection: collection, RecordID: id, Payload: b}
	if err := g.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	return &Result{Success: true, Data: b}, nil
}

func (g *PostgresGateway) update(ctx context.Context, collection string, payload any) (*Result, error) {
	patch, err := payloadMap(payload)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	id, _ := patch[primaryKeyField(collection)].(string)
	if id == "" {
		return &Result{Success: false, Error: "update requires a record id"}, nil
	}

	var merged []byte
	err = g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		if err := tx.Where("collection = ? AND record_id = ?", collection, id).
			First(&rec).Error; err != nil {
			return fmt.Errorf("record %s/%s not found", collection, id)
		}
		var current map[string]any
		if err := json.Unmarshal(rec.Payload, &current); err != nil {
			return err
		}
		for k, v := range patch {
			current[k] = v
		}
		b, err := json.Marshal(current)
		if err != nil {
			return err
		}
		merged = b
		return tx.Model(&Record{}).
			Where("collection = ? AND record_id = ?", collection, id).
			Update("payload", b).Error
	})
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	return &Result{Success: true, Data: merged}, nil
}

func (g *PostgresGateway) delete(ctx context.Context, collection string, payload any) (*Result, error) {
	m, err := payloadMap(payload)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	id, _ := m[primaryKeyField(collection)].(string)
	if id == "" {
		return &Result{Success: false, Error: "delete requires a record id"}, nil
	}
	if err := g.DB.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		Delete(&Record{}).Error; err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	return &Result{Success: true}, nil
}
