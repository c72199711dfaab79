package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryGateway is the demo-mode store used when no sheets URL is configured.
// It holds collections as plain row maps behind one mutex.
type MemoryGateway struct {
	mu   sync.Mutex
	data map[string][]map[string]any
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{data: map[string][]map[string]any{}}
}

func (g *MemoryGateway) Invoke(ctx context.Context, action Action, collection string, payload any) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch action {
	case ActionRead:
		data, err := json.Marshal(g.data[collection])
		if err != nil {
			return &Result{Success: false, Error: err.Error()}, nil
		}
		return &Result{Success: true, Data: data}, nil

	case ActionAppend:
		m, err := payloadMap(payload)
		if err != nil {
			return &Result{Success: false, Error: err.Error()}, nil
		}
		key := primaryKeyField(collection)
		if id, _ := m[key].(string); id == "" {
			m[key] = uuid.NewString()
		}
		g.data[collection] = append(g.data[collection], m)
		data, _ := json.Marshal(m)
		return &Result{Success: true, Data: data}, nil

	case ActionUpdate:
		patch, err := payloadMap(payload)
		if err != nil {
			return &Result{Success: false, Error: err.Error()}, nil
		}
		key := primaryKeyField(collection)
		id, _ := patch[key].(string)
		for _, row := range g.data[collection] {
			if rid, _ := row[key].(string); rid == id && id != "" {
				for k, v := range patch {
					row[k] = v
				}
				data, _ := json.Marshal(row)
				return &Result{Success: true, Data: data}, nil
			}
		}
		return &Result{Success: false, Error: fmt.Sprintf("record %s/%s not found", collection, id)}, nil

	case ActionDelete:
		m, err := payloadMap(payload)
		if err != nil {
			return &Result{Success: false, Error: err.Error()}, nil
		}
		key := primaryKeyField(collection)
		id, _ := m[key].(string)
		rows := g.data[collection]
		for i, row := range rows {
			if rid, _ := row[key].(string); rid == id && id != "" {
				g.data[collection] = append(rows[:i], rows[i+1:]...)
				return &Result{Success: true}, nil
			}
		}
		return &Result{Success: false, Error: fmt.Sprintf("record %s/%s not found", collection, id)}, nil

	case ActionUploadFile:
		return &Result{Success: true, URL: "https://picsum.photos/200"}, nil
	}
	return &Result{Success: false, Error: fmt.Sprintf("unknown action %q", action)}, nil
}

// Seed replaces a collection wholesale. Rows go through a JSON round trip so
// typed seeds and map seeds behave identically.
func (g *MemoryGateway) Seed(collection string, rows ...any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		m, err := payloadMap(r)
		if err != nil {
			return err
		}
		out = append(out, m)
	}
	g.data[collection] = out
	return nil
}
