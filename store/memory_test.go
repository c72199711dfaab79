package store

import (
	"context"
	"errors"
	"testing"

	"deviceloan/models"
)

func TestMemoryAppendAssignsID(t *testing.T) {
	g := NewMemoryGateway()

	res, err := Call(context.Background(), g, ActionAppend, Devices, map[string]any{"serialNumber": "SN-1"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("append failed: %s", res.Error)
	}

	var rows []map[string]any
	if err := ReadInto(context.Background(), g, Devices, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if id, _ := rows[0]["id"].(string); id == "" {
		t.Fatal("append must assign an id")
	}
}

func TestMemoryHistoryKeyedByHistoryID(t *testing.T) {
	g := NewMemoryGateway()

	if _, err := Call(context.Background(), g, ActionAppend, History, models.HistoryEntry{
		HistoryID: "h1", DeviceID: "dev-1", BorrowerName: "Bob", Status: models.HistoryReturned,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := Call(context.Background(), g, ActionUpdate, History, map[string]any{
		"historyId": "h1", "returnNotes": "late",
	}); err != nil {
		t.Fatal(err)
	}

	var rows []models.HistoryEntry
	if err := ReadInto(context.Background(), g, History, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ReturnNotes != "late" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestMemoryUpdateMerges(t *testing.T) {
	g := NewMemoryGateway()
	if err := g.Seed(Devices, models.Device{
		ID: "dev-1", SerialNumber: "SN-1", Status: models.StatusAvailable,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := Call(context.Background(), g, ActionUpdate, Devices, map[string]any{
		"id": "dev-1", "status": string(models.StatusBorrowed), "borrowedBy": "Bob",
	}); err != nil {
		t.Fatal(err)
	}

	var rows []models.Device
	if err := ReadInto(context.Background(), g, Devices, &rows); err != nil {
		t.Fatal(err)
	}
	if rows[0].Status != models.StatusBorrowed || rows[0].BorrowedBy != "Bob" {
		t.Fatalf("row = %+v", rows[0])
	}
	// Untouched fields survive the patch.
	if rows[0].SerialNumber != "SN-1" {
		t.Fatalf("serial lost in merge: %+v", rows[0])
	}
}

func TestMemoryUpdateUnknownRecordFails(t *testing.T) {
	g := NewMemoryGateway()

	_, err := Call(context.Background(), g, ActionUpdate, Devices, map[string]any{"id": "nope"})
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("want RemoteError, got %v", err)
	}
}

func TestMemoryDelete(t *testing.T) {
	g := NewMemoryGateway()
	if err := g.Seed(Products,
		models.Product{ID: "PROD-1", Name: "A"},
		models.Product{ID: "PROD-2", Name: "B"},
	); err != nil {
		t.Fatal(err)
	}

	if _, err := Call(context.Background(), g, ActionDelete, Products, map[string]any{"id": "PROD-1"}); err != nil {
		t.Fatal(err)
	}
	var rows []models.Product
	if err := ReadInto(context.Background(), g, Products, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "PROD-2" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestMemoryUploadReturnsURL(t *testing.T) {
	g := NewMemoryGateway()
	res, err := Call(context.Background(), g, ActionUploadFile, "", map[string]any{"fileName": "x.png"})
	if err != nil {
		t.Fatal(err)
	}
	if res.URL == "" {
		t.Fatal("upload must return a URL")
	}
}

func TestDemoGatewayLoads(t *testing.T) {
	g := NewDemoGateway()

	var devices []models.Device
	if err := ReadInto(context.Background(), g, Devices, &devices); err != nil {
		t.Fatal(err)
	}
	if len(devices) != 4 {
		t.Fatalf("demo devices = %d", len(devices))
	}
	var products []models.Product
	if err := ReadInto(context.Background(), g, Products, &products); err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].ID != "PROD-001" {
		t.Fatalf("demo products = %+v", products)
	}
}
