package transfer

import (
	"testing"
	"time"

	"github.com/example/assetflow/internal/core/effects"
)

func TestPlanEffectuation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	asset := AssetSnapshot{ID: 1, SectorID: 10, CustodianID: 100, Status: AssetActive}

	tests := []struct {
		name          string
		sector        *int64
		custodian     *int64
		wantMutation  AssetMutation
		wantPayloadOf []string
	}{
		{
			name:          "sector only keeps custodian",
			sector:        int64Ptr(20),
			wantMutation:  AssetMutation{AssetID: 1, SectorID: 20, CustodianID: 100},
			wantPayloadOf: []string{"sector_id"},
		},
		{
			name:          "custodian only keeps sector",
			custodian:     int64Ptr(200),
			wantMutation:  AssetMutation{AssetID: 1, SectorID: 10, CustodianID: 200},
			wantPayloadOf: []string{"custodian_id"},
		},
		{
			name:          "both fields",
			sector:        int64Ptr(20),
			custodian:     int64Ptr(200),
			wantMutation:  AssetMutation{AssetID: 1, SectorID: 20, CustodianID: 200},
			wantPayloadOf: []string{"sector_id", "custodian_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanEffectuation(EffectuationInput{
				TransferID:             7,
				DestinationSectorID:    tt.sector,
				DestinationCustodianID: tt.custodian,
				Asset:                  asset,
				ActorID:                2,
				Now:                    now,
			})

			if plan.Mutation != tt.wantMutation {
				t.Errorf("Mutation = %+v, want %+v", plan.Mutation, tt.wantMutation)
			}
			if len(plan.Effects) != 1 {
				t.Fatalf("got %d effects, want 1", len(plan.Effects))
			}
			audit, ok := plan.Effects[0].(effects.AuditEffect)
			if !ok {
				t.Fatalf("effect type = %T, want AuditEffect", plan.Effects[0])
			}
			if audit.Entity != "asset" || audit.EntityID != 1 || audit.ActorID != 2 {
				t.Errorf("audit effect = %+v", audit)
			}
			for _, key := range tt.wantPayloadOf {
				if _, ok := audit.Payload[key]; !ok {
					t.Errorf("payload missing %q: %v", key, audit.Payload)
				}
			}
		})
	}
}

func TestPlanTransitionEffects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	effs := PlanTransitionEffects(TransitionInput{
		TransferID: 3,
		AssetID:    1,
		Action:     string(ActionApprove),
		State:      StateApproved,
		ActorID:    2,
		Now:        now,
	})

	if len(effs) != 2 {
		t.Fatalf("got %d effects, want 2", len(effs))
	}
	pub, ok := effs[0].(effects.PublishEffect)
	if !ok {
		t.Fatalf("first effect = %T, want PublishEffect", effs[0])
	}
	if pub.Key != "1" {
		t.Errorf("Key = %q, want asset id", pub.Key)
	}
	event := pub.Event.(Event)
	if event.State != StateApproved || event.Action != "approve" || !event.OccurredAt.Equal(now) {
		t.Errorf("event = %+v", event)
	}
	log, ok := effs[1].(effects.LogEffect)
	if !ok || log.Message != "transfer 3 approved" {
		t.Errorf("log effect = %+v", effs[1])
	}
}
