package queue

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/lekarna/internal/db"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/store"
)

// fixedEstimator returns constant durations so cumulative math is exact.
type fixedEstimator struct {
	regular, edge int
}

func (e fixedEstimator) Estimate(kind string) int {
	if kind == model.KindEdge {
		return e.edge
	}
	return e.regular
}

func makeOrder(t *testing.T, database *sql.DB) *model.Order {
	t.Helper()
	ctx := context.Background()

	doctor, err := store.CreateUser(ctx, database, "Dr. Novak", "novak@example.com", "x", model.RoleDoctor, "")
	if err != nil {
		t.Fatalf("creating doctor: %v", err)
	}
	patient, err := store.CreateUser(ctx, database, "Ana", "ana@example.com", "x", model.RolePatient, "")
	if err != nil {
		t.Fatalf("creating patient: %v", err)
	}
	prescription, err := store.CreatePrescription(ctx, database, doctor.ID, patient.ID, "paracetamol 500mg")
	if err != nil {
		t.Fatalf("creating prescription: %v", err)
	}
	order, err := store.CreateOrder(ctx, database, prescription.ID, patient.ID)
	if err != nil {
		t.Fatalf("creating order: %v", err)
	}
	return order
}

func TestEnqueueCumulativeTimes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	q := New(database, fixedEstimator{regular: 20, edge: 40})

	// First order: one edge item, 40s packing on an empty queue.
	first := makeOrder(t, database)
	entry, err := q.Enqueue(ctx, first.ID, []model.QueueItem{{Name: "cough syrup", Kind: model.KindEdge}})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if entry.EstimatedSeconds != 340 {
		t.Errorf("expected 340s (300 base + 40), got %v", entry.EstimatedSeconds)
	}

	// Second order: one regular item, cumulative from the tail.
	second := makeOrder(t, database)
	entry2, err := q.Enqueue(ctx, second.ID, []model.QueueItem{{Name: "paracetamol", Kind: model.KindRegular}})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if entry2.EstimatedSeconds != 360 {
		t.Errorf("expected 360s (340 tail + 20), got %v", entry2.EstimatedSeconds)
	}
}

func TestQueueMonotonicity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	q := New(database, nil) // production randomized estimator

	for range 5 {
		order := makeOrder(t, database)
		if _, err := q.Enqueue(ctx, order.ID, []model.QueueItem{
			{Name: "paracetamol", Kind: model.KindRegular},
			{Name: "insulin injection", Kind: model.KindEdge},
		}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	entries, err := q.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	prev := 0.0
	for i, e := range entries {
		if e.EstimatedSeconds < prev {
			t.Errorf("entry %d estimate %v below predecessor %v", i, e.EstimatedSeconds, prev)
		}
		prev = e.EstimatedSeconds
	}
}

func TestPosition(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	q := New(database, fixedEstimator{regular: 10, edge: 10})

	first := makeOrder(t, database)
	second := makeOrder(t, database)
	q.Enqueue(ctx, first.ID, []model.QueueItem{{Name: "a", Kind: model.KindRegular}})
	q.Enqueue(ctx, second.ID, []model.QueueItem{{Name: "b", Kind: model.KindRegular}})

	if pos, _ := q.Position(ctx, first.ID); pos != 1 {
		t.Errorf("expected position 1, got %d", pos)
	}
	if pos, _ := q.Position(ctx, second.ID); pos != 2 {
		t.Errorf("expected position 2, got %d", pos)
	}
	if pos, _ := q.Position(ctx, "nonexistent"); pos != -1 {
		t.Errorf("expected -1 for unknown order, got %d", pos)
	}
}

func TestTotalWait(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	q := New(database, fixedEstimator{regular: 25, edge: 50})

	if total, _ := q.TotalWait(ctx); total != 0 {
		t.Errorf("expected 0 for empty queue, got %v", total)
	}

	order := makeOrder(t, database)
	q.Enqueue(ctx, order.ID, []model.QueueItem{{Name: "a", Kind: model.KindRegular}})

	if total, _ := q.TotalWait(ctx); total != 325 {
		t.Errorf("expected 325, got %v", total)
	}
}

func TestRemoveKeepsLaterEstimates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	q := New(database, fixedEstimator{regular: 20, edge: 20})

	first := makeOrder(t, database)
	second := makeOrder(t, database)
	q.Enqueue(ctx, first.ID, []model.QueueItem{{Name: "a", Kind: model.KindRegular}})
	q.Enqueue(ctx, second.ID, []model.QueueItem{{Name: "b", Kind: model.KindRegular}})

	if err := q.Remove(ctx, first.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	entries, _ := q.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after removal, got %d", len(entries))
	}
	// Estimates behind the removed entry are advisory and stay put.
	if entries[0].EstimatedSeconds != 340 {
		t.Errorf("expected estimate 340 to survive removal, got %v", entries[0].EstimatedSeconds)
	}
	if pos, _ := q.Position(ctx, second.ID); pos != 1 {
		t.Errorf("expected position 1 after removal, got %d", pos)
	}
}

func TestRandomEstimatorRanges(t *testing.T) {
	est := RandomEstimator{}
	for range 100 {
		if d := est.Estimate(model.KindEdge); d < 30 || d > 60 {
			t.Fatalf("edge duration %d outside [30,60]", d)
		}
		if d := est.Estimate(model.KindRegular); d < 15 || d > 30 {
			t.Fatalf("regular duration %d outside [15,30]", d)
		}
	}
}
