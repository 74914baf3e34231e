package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/fsm/pkg/adapters/memory"
	"github.com/aretw0/fsm/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	cfg, _ := memory.NewLoader("A", memory.State{ID: "A"}).Load(context.Background())
	mgr, err := NewManager(cfg, memory.NewStore())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	count := 1000

	// 1. Open and Delete many machines
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("machine-%d", i)
		_, _ = mgr.ChangeState(ctx, id, domain.StateID("A"))
		_ = mgr.Delete(ctx, id)
	}

	// 2. Every lock entry must have been released
	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
