package testsupport

import (
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-scanform/components/inventorystub"
	"github.com/goliatone/go-scanform/pkg/form"
	"github.com/goliatone/go-scanform/pkg/scan"
)

// FullValues is a garment record with every field filled.
func FullValues() map[form.Field]string {
	return map[form.Field]string{
		form.BarCode:          "7501234567890",
		form.GarmentName:      "Camisa Oxford",
		form.FabricType:       "Algodón",
		form.Sizes:            "s, m",
		form.Colors:           "azul",
		form.IncomingQuantity: "24",
		form.TargetGender:     "Unisex",
		form.Condition:        "Nueva",
	}
}

// FullSnapshot returns FullValues as a snapshot.
func FullSnapshot() form.Snapshot {
	return form.SnapshotOf(FullValues())
}

// NewStubServer starts the reference inventory server and closes it when the
// test ends.
func NewStubServer(t *testing.T, fns ...inventorystub.OptionFn) (*httptest.Server, *inventorystub.MemoryStore) {
	t.Helper()

	store := inventorystub.NewMemoryStore()
	router := mux.NewRouter()
	opts := append([]inventorystub.OptionFn{inventorystub.WithStore(store)}, fns...)
	if _, err := inventorystub.RegisterRoutes(router, "", opts...); err != nil {
		t.Fatalf("register stub routes: %v", err)
	}
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

// ManualScheduler fires scheduled functions only when Advance moves its clock
// past their deadline.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
}

type manualTask struct {
	owner   *ManualScheduler
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc implements scan.Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) scan.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{owner: s, at: s.now + d, fn: fn}
	s.tasks = append(s.tasks, task)
	return task
}

// Advance moves the clock and runs due tasks outside the lock.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTask
	remaining := s.tasks[:0]
	for _, task := range s.tasks {
		switch {
		case task.stopped:
		case task.at <= s.now:
			task.fired = true
			due = append(due, task)
		default:
			remaining = append(remaining, task)
		}
	}
	s.tasks = remaining
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, task := range due {
		task.fn()
	}
}

// Pending counts tasks that have neither fired nor been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, task := range s.tasks {
		if !task.stopped {
			n++
		}
	}
	return n
}
