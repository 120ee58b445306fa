package docgraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/pkg/apperr"
)

func workOrderMachine() *Machine {
	return &Machine{
		EntityType: "work_order",
		States:     []string{"draft", "released", "in_progress", "completed", "closed"},
		Initial:    "draft",
		Transitions: []Transition{
			{From: "draft", To: "released"},
			{From: "released", To: "in_progress"},
			{From: "in_progress", To: "completed"},
			{From: "completed", To: "closed"},
		},
	}
}

func TestRegisterValidation(t *testing.T) {
	s := NewStateMachine(nil, nil)

	err := s.Register(&Machine{EntityType: "", Initial: "draft"})
	assert.True(t, apperr.IsValidation(err), "empty entity type")

	err = s.Register(&Machine{
		EntityType: "order",
		States:     []string{"draft"},
		Initial:    "open",
	})
	assert.True(t, apperr.IsValidation(err), "initial state not among states")

	err = s.Register(&Machine{
		EntityType:  "order",
		States:      []string{"draft", "open"},
		Initial:     "draft",
		Transitions: []Transition{{From: "draft", To: "closed"}},
	})
	assert.True(t, apperr.IsValidation(err), "transition to unknown state")

	err = s.Register(workOrderMachine())
	assert.NoError(t, err)

	machine, ok := s.MachineFor("work_order")
	require.True(t, ok)
	assert.Equal(t, "draft", machine.Initial)
}

func TestMachineAllows(t *testing.T) {
	machine := workOrderMachine()

	_, ok := machine.allows("draft", "released")
	assert.True(t, ok)

	_, ok = machine.allows("draft", "completed")
	assert.False(t, ok, "skipping states is not in the matrix")

	_, ok = machine.allows("released", "draft")
	assert.False(t, ok, "reverse direction is not in the matrix")
}

func TestPredicateVeto(t *testing.T) {
	called := false
	machine := &Machine{
		EntityType: "receipt",
		States:     []string{"open", "posted"},
		Initial:    "open",
		Transitions: []Transition{
			{From: "open", To: "posted", Precondition: func(ctx context.Context) error {
				called = true
				return errors.New("quantities not confirmed")
			}},
		},
	}

	transition, ok := machine.allows("open", "posted")
	require.True(t, ok)
	require.NotNil(t, transition.Precondition)
	err := transition.Precondition(context.Background())
	assert.Error(t, err)
	assert.True(t, called)
}

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(4)

	bus.Publish(Event{TenantID: 1, EntityType: "work_order", EntityID: 9, FromState: "draft", ToState: "released"})

	select {
	case event := <-sub:
		assert.Equal(t, "work_order", event.EntityType)
		assert.Equal(t, "released", event.ToState)
	case <-time.After(time.Second):
		t.Fatal("expected event delivery")
	}
}

func TestEventBusNeverBlocks(t *testing.T) {
	bus := NewEventBus()
	_ = bus.Subscribe(1) // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{EntityID: uint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish must not block on a slow subscriber")
	}
}
