package usersink

import (
	"context"
	"errors"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-settings/pkg/audit"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookMapsEventToActivityRecord(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}
	actor := uuid.New()
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	err := hook.Notify(context.Background(), audit.Event{
		ID:         "attempt-1",
		Verb:       audit.VerbSaved,
		Bundle:     "prefs",
		Scope:      "subsite:3",
		ActorID:    actor.String(),
		Metadata:   map[string]any{"operation": "save_all"},
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected one record, got %d", len(sink.records))
	}

	record := sink.records[0]
	if record.Verb != audit.VerbSaved {
		t.Fatalf("unexpected verb %q", record.Verb)
	}
	if record.ObjectType != "settings.bundle" || record.ObjectID != "prefs" {
		t.Fatalf("unexpected object: %q %q", record.ObjectType, record.ObjectID)
	}
	if record.ActorID != actor {
		t.Fatalf("unexpected actor %v", record.ActorID)
	}
	if !record.OccurredAt.Equal(at) {
		t.Fatalf("unexpected timestamp %v", record.OccurredAt)
	}
	if record.Data["operation"] != "save_all" {
		t.Fatalf("metadata must carry over, got %+v", record.Data)
	}
	if record.Data["scope"] != "subsite:3" || record.Data["attempt_id"] != "attempt-1" {
		t.Fatalf("scope and attempt id must land in data, got %+v", record.Data)
	}
}

func TestHookUnparseableActorFallsBackToNil(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}

	err := hook.Notify(context.Background(), audit.Event{
		Verb:    audit.VerbErased,
		Bundle:  "prefs",
		ActorID: "not-a-uuid",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected uuid.Nil actor, got %v", sink.records[0].ActorID)
	}
}

func TestHookSkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}

	if err := hook.Notify(context.Background(), audit.Event{Verb: audit.VerbSaved}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := hook.Notify(context.Background(), audit.Event{Bundle: "prefs"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("incomplete events must be dropped, got %d", len(sink.records))
	}
}

func TestHookNilSinkIsNoop(t *testing.T) {
	hook := Hook{}
	if err := hook.Notify(context.Background(), audit.Event{Verb: audit.VerbSaved, Bundle: "prefs"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
}

func TestHookPropagatesSinkError(t *testing.T) {
	sentinel := errors.New("feed unavailable")
	hook := Hook{Sink: &recordingSink{err: sentinel}}
	err := hook.Notify(context.Background(), audit.Event{Verb: audit.VerbSaved, Bundle: "prefs"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
