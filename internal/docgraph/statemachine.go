package docgraph

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenantctx"
	"platform-service/pkg/apperr"
)

// Predicate is a per-transition precondition supplied by the owning domain.
// It runs inside the transition transaction; a non-nil error vetoes the
// transition.
type Predicate func(ctx context.Context) error

// Transition declares one allowed (from, to) pair with an optional
// precondition.
type Transition struct {
	From         string
	To           string
	Precondition Predicate
}

// Machine defines the ordered states and allowed transitions of one entity
// type.
type Machine struct {
	EntityType  string
	States      []string
	Initial     string
	Transitions []Transition
}

// allows returns the matching transition declaration, if any.
func (m *Machine) allows(from, to string) (*Transition, bool) {
	for i := range m.Transitions {
		t := &m.Transitions[i]
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return nil, false
}

// StateMachine validates transition requests against registered machines,
// keeps the current state with an optimistic version, writes the append-only
// transition log, and emits events.
type StateMachine struct {
	db  *gorm.DB
	bus *EventBus

	mu       sync.RWMutex
	machines map[string]*Machine
}

// NewStateMachine creates a state machine manager publishing to bus.
func NewStateMachine(db *gorm.DB, bus *EventBus) *StateMachine {
	return &StateMachine{db: db, bus: bus, machines: make(map[string]*Machine)}
}

// Register installs the machine for its entity type. Domains register their
// machines at startup.
func (s *StateMachine) Register(machine *Machine) error {
	if machine.EntityType == "" || machine.Initial == "" {
		return apperr.New(apperr.KindValidation, "machine requires entity type and initial state")
	}
	known := make(map[string]bool, len(machine.States))
	for _, state := range machine.States {
		known[state] = true
	}
	if !known[machine.Initial] {
		return apperr.Newf(apperr.KindValidation, "initial state %q not among states", machine.Initial)
	}
	for _, t := range machine.Transitions {
		if !known[t.From] || !known[t.To] {
			return apperr.Newf(apperr.KindValidation, "transition %s->%s references unknown state", t.From, t.To)
		}
	}
	s.mu.Lock()
	s.machines[machine.EntityType] = machine
	s.mu.Unlock()
	return nil
}

// MachineFor returns the registered machine for an entity type.
func (s *StateMachine) MachineFor(entityType string) (*Machine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	machine, ok := s.machines[entityType]
	return machine, ok
}

// Initialize creates the state row for a new document at the machine's
// initial state. Idempotent for an existing row in the initial state.
func (s *StateMachine) Initialize(ctx context.Context, entityType string, entityID uint) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	machine, ok := s.MachineFor(entityType)
	if !ok {
		return apperr.Newf(apperr.KindValidation, "no state machine registered for %q", entityType)
	}

	var existing model.DocumentState
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		First(&existing).Error
	if err == nil {
		if existing.State != machine.Initial {
			return apperr.Newf(apperr.KindValidation, "%s %d already initialized in state %q", entityType, entityID, existing.State)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.db.WithContext(ctx).Create(&model.DocumentState{
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		State:      machine.Initial,
	}).Error
}

// Current returns the current state of a document.
func (s *StateMachine) Current(ctx context.Context, entityType string, entityID uint) (string, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return "", err
	}
	var state model.DocumentState
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.Newf(apperr.KindNotFound, "%s %d has no tracked state", entityType, entityID)
	}
	if err != nil {
		return "", err
	}
	return state.State, nil
}

// Transition moves a document to toState. The (from, to) pair must be in
// the machine's matrix and the precondition, if any, must pass. Concurrent
// transitions on the same entity are serialized by the version column; the
// loser fails with ConcurrentTransition. On success an append-only log row
// is written and an event is emitted after commit.
func (s *StateMachine) Transition(ctx context.Context, entityType string, entityID uint, toState string, operatorID uint, reason string) error {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return err
	}
	machine, ok := s.MachineFor(entityType)
	if !ok {
		return apperr.Newf(apperr.KindValidation, "no state machine registered for %q", entityType)
	}

	var fromState string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state model.DocumentState
		err := tx.Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
			First(&state).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Newf(apperr.KindNotFound, "%s %d has no tracked state", entityType, entityID)
		}
		if err != nil {
			return err
		}
		fromState = state.State

		transition, allowed := machine.allows(state.State, toState)
		if !allowed {
			return apperr.Newf(apperr.KindIllegalTransition, "%s: %s -> %s not allowed", entityType, state.State, toState)
		}
		if transition.Precondition != nil {
			if err := transition.Precondition(ctx); err != nil {
				return apperr.Wrap(apperr.KindValidation, "transition precondition failed", err)
			}
		}

		result := tx.Model(&model.DocumentState{}).
			Where("id = ? AND version = ?", state.ID, state.Version).
			Updates(map[string]interface{}{"state": toState, "version": state.Version + 1})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.Newf(apperr.KindConcurrentTransition, "%s %d was transitioned concurrently", entityType, entityID)
		}

		return tx.Create(&model.StateTransitionLog{
			TenantID:   tenantID,
			EntityType: entityType,
			EntityID:   entityID,
			FromState:  fromState,
			ToState:    toState,
			OperatorID: operatorID,
			Reason:     reason,
		}).Error
	})
	if err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(Event{
			TenantID:   tenantID,
			EntityType: entityType,
			EntityID:   entityID,
			FromState:  fromState,
			ToState:    toState,
			OperatorID: operatorID,
		})
	}
	return nil
}

// History returns the transition log for a document, oldest first.
func (s *StateMachine) History(ctx context.Context, entityType string, entityID uint) ([]model.StateTransitionLog, error) {
	tenantID, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	var logs []model.StateTransitionLog
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("id").
		Find(&logs).Error
	return logs, err
}
