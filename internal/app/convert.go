package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/ports/secondary"
)

func toTransfer(r *secondary.TransferRecord) *primary.Transfer {
	t := &primary.Transfer{
		ID:                     r.ID,
		AssetID:                r.AssetID,
		OriginSectorID:         r.OriginSectorID,
		OriginCustodianID:      r.OriginCustodianID,
		DestinationSectorID:    r.DestinationSectorID,
		DestinationCustodianID: r.DestinationCustodianID,
		Reason:                 r.Reason,
		RequesterID:            r.RequesterID,
		ApproverID:             r.ApproverID,
		ApprovalNotes:          r.ApprovalNotes,
		RejectionReason:        r.RejectionReason,
		ApprovedAt:             r.ApprovedAt,
		Effectuated:            r.Effectuated,
		EffectuatedAt:          r.EffectuatedAt,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
	t.State = transfer.DeriveState(t.StateFields())
	return t
}

func toAsset(r *secondary.AssetRecord) (*primary.Asset, error) {
	value, err := decimal.NewFromString(r.AcquisitionValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse acquisition value of asset %d: %w", r.ID, err)
	}
	return &primary.Asset{
		ID:               r.ID,
		Tag:              r.Tag,
		Description:      r.Description,
		SectorID:         r.SectorID,
		CustodianID:      r.CustodianID,
		Status:           transfer.AssetStatus(r.Status),
		AcquisitionValue: value,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}
