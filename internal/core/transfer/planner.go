package transfer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/example/assetflow/internal/core/effects"
)

// Event is the domain event emitted after every successful transition.
type Event struct {
	TransferID int64     `json:"transfer_id"`
	AssetID    int64     `json:"asset_id"`
	Action     string    `json:"action"`
	State      State     `json:"state"`
	ActorID    int64     `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AssetMutation is the registry change applied by effectuation.
type AssetMutation struct {
	AssetID     int64
	SectorID    int64
	CustodianID int64
}

// EffectuationInput contains pre-fetched data for effectuation planning.
type EffectuationInput struct {
	TransferID             int64
	DestinationSectorID    *int64
	DestinationCustodianID *int64
	Asset                  AssetSnapshot
	ActorID                int64
	Now                    time.Time
}

// EffectuationPlan represents the planned changes for effectuating a transfer.
// Mutation is applied atomically with the transfer update; Effects are side
// channels executed afterwards.
type EffectuationPlan struct {
	Mutation AssetMutation
	Effects  []effects.Effect
}

// PlanEffectuation applies the destination fields onto the asset. Unset
// destination fields keep the asset's current value.
// This is a pure function - all input data must be pre-fetched.
func PlanEffectuation(in EffectuationInput) EffectuationPlan {
	mutation := AssetMutation{
		AssetID:     in.Asset.ID,
		SectorID:    in.Asset.SectorID,
		CustodianID: in.Asset.CustodianID,
	}
	payload := map[string]any{"transfer_id": in.TransferID}

	if in.DestinationSectorID != nil && *in.DestinationSectorID != in.Asset.SectorID {
		mutation.SectorID = *in.DestinationSectorID
		payload["sector_id"] = map[string]any{"old": in.Asset.SectorID, "new": mutation.SectorID}
	}
	if in.DestinationCustodianID != nil && *in.DestinationCustodianID != in.Asset.CustodianID {
		mutation.CustodianID = *in.DestinationCustodianID
		payload["custodian_id"] = map[string]any{"old": in.Asset.CustodianID, "new": mutation.CustodianID}
	}

	return EffectuationPlan{
		Mutation: mutation,
		Effects: []effects.Effect{
			effects.AuditEffect{
				Action:   "update",
				Entity:   "asset",
				EntityID: in.Asset.ID,
				ActorID:  in.ActorID,
				Payload:  payload,
			},
		},
	}
}

// TransitionInput describes a transition that has just been persisted.
type TransitionInput struct {
	TransferID int64
	AssetID    int64
	Action     string // "create" or an Action
	State      State
	ActorID    int64
	Now        time.Time
}

// PlanTransitionEffects returns the side effects that follow a persisted
// transition: a domain event and an info log line.
func PlanTransitionEffects(in TransitionInput) []effects.Effect {
	return []effects.Effect{
		effects.PublishEffect{
			Key: strconv.FormatInt(in.AssetID, 10),
			Event: Event{
				TransferID: in.TransferID,
				AssetID:    in.AssetID,
				Action:     in.Action,
				State:      in.State,
				ActorID:    in.ActorID,
				OccurredAt: in.Now.UTC(),
			},
		},
		effects.LogEffect{
			Level:   "info",
			Message: fmt.Sprintf("transfer %d %s", in.TransferID, pastTense(in.Action)),
			Fields: map[string]any{
				"transfer_id": in.TransferID,
				"asset_id":    in.AssetID,
				"state":       string(in.State),
				"actor_id":    in.ActorID,
			},
		},
	}
}

func pastTense(action string) string {
	switch action {
	case "create":
		return "created"
	case string(ActionApprove):
		return "approved"
	case string(ActionReject):
		return "rejected"
	case string(ActionEffectuate):
		return "effectuated"
	default:
		return action
	}
}
