package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"deviceloan/models"
	"deviceloan/state"
	"deviceloan/store"
)

type failGateway struct{}

func (failGateway) Invoke(context.Context, store.Action, string, any) (*store.Result, error) {
	return nil, errors.New("store unreachable")
}

var teacher = models.Profile{ID: "T1", Username: "Alice Teacher", Email: "alice@school.test", Role: models.RoleTeacher}

func TestLogPersistsAndNotifies(t *testing.T) {
	gw := store.NewMemoryGateway()
	st := state.New()
	n := NewNotifier(0)
	sink := NewSink(gw, st, n, nil)

	sink.Log(context.Background(), &teacher, models.ActionBorrowRequested, "Alice borrowed a MacBook")

	logs := st.ActivityLogs()
	if len(logs) != 1 {
		t.Fatalf("projection logs = %d", len(logs))
	}
	if logs[0].UserEmail != teacher.Email || logs[0].Action != models.ActionBorrowRequested {
		t.Fatalf("entry = %+v", logs[0])
	}

	var rows []models.ActivityLog
	if err := store.ReadInto(context.Background(), gw, store.ActivityLogs, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("stored rows = %d", len(rows))
	}

	notes := n.List()
	if len(notes) != 1 || notes[0].Type != "info" {
		t.Fatalf("notifications = %+v", notes)
	}
}

func TestLogSilentAction(t *testing.T) {
	gw := store.NewMemoryGateway()
	st := state.New()
	n := NewNotifier(0)
	sink := NewSink(gw, st, n, nil)

	sink.Log(context.Background(), &teacher, models.ActionRepairRequested, "ticket opened")

	if len(st.ActivityLogs()) != 1 {
		t.Fatal("entry not recorded")
	}
	if len(n.List()) != 0 {
		t.Fatal("silent action raised a notification")
	}
}

func TestLogNilActorIsNoOp(t *testing.T) {
	gw := store.NewMemoryGateway()
	st := state.New()
	sink := NewSink(gw, st, NewNotifier(0), nil)

	sink.Log(context.Background(), nil, models.ActionBorrowRequested, "no session")

	var rows []models.ActivityLog
	if err := store.ReadInto(context.Background(), gw, store.ActivityLogs, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 || len(st.ActivityLogs()) != 0 {
		t.Fatal("nil actor must not be recorded")
	}
}

func TestLogSwallowsStoreFailure(t *testing.T) {
	st := state.New()
	n := NewNotifier(0)
	sink := NewSink(failGateway{}, st, n, nil)

	sink.Log(context.Background(), &teacher, models.ActionBorrowRequested, "unpersisted")

	if len(st.ActivityLogs()) != 0 {
		t.Fatal("failed write must not reach the projection")
	}
	if len(n.List()) != 0 {
		t.Fatal("failed write must not notify")
	}
}

func TestNotifierKeepsFiveNewestFirst(t *testing.T) {
	n := NewNotifier(0)
	for i := 0; i < 7; i++ {
		n.Push("message", "info")
	}
	items := n.List()
	if len(items) != 5 {
		t.Fatalf("len = %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].ID <= items[i].ID {
			t.Fatalf("not newest first: %+v", items)
		}
	}
}

func TestNotifierRemove(t *testing.T) {
	n := NewNotifier(0)
	a := n.Push("a", "info")
	b := n.Push("b", "error")

	n.Remove(a.ID)
	items := n.List()
	if len(items) != 1 || items[0].ID != b.ID {
		t.Fatalf("items = %+v", items)
	}
	// Removing twice is fine.
	n.Remove(a.ID)
}

func TestNotifierExpiry(t *testing.T) {
	n := NewNotifier(30 * time.Millisecond)
	n.Push("fleeting", "info")

	deadline := time.Now().Add(2 * time.Second)
	for len(n.List()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("notification never expired")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
