package transfer

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/example/assetflow/internal/errors"
)

// MinReasonLength is the minimum reason length, counted after trimming.
const MinReasonLength = 10

// Field names used as validation error keys.
const (
	FieldAssetID                = "asset_id"
	FieldDestination            = "destination"
	FieldDestinationSectorID    = "destination_sector_id"
	FieldDestinationCustodianID = "destination_custodian_id"
	FieldReason                 = "reason"
	FieldRejectionReason        = "rejection_reason"
)

// Validation messages.
const (
	MsgAssetRequired          = "asset is required"
	MsgAssetNotFound          = "asset not found"
	MsgAssetRetired           = "retired assets cannot be transferred"
	MsgPendingTransferExists  = "asset already has a pending transfer"
	MsgStaleOrigin            = "asset sector or custodian changed since it was selected"
	MsgDestinationRequired    = "at least one of destination sector or destination custodian is required"
	MsgSameSector             = "destination sector must differ from origin sector"
	MsgSameCustodian          = "destination custodian must differ from origin custodian"
	MsgNoEffectiveChange      = "no effective change"
	MsgReasonTooShort         = "reason must be at least 10 characters"
	MsgSectorNotFound         = "destination sector not found"
	MsgCustodianNotFound      = "destination custodian not found"
	MsgRejectionReasonMissing = "rejection reason is required"
)

// FieldErrors maps a field name to its validation message.
// Multiple failures on one field are joined with "; " in rule order.
type FieldErrors map[string]string

func (f FieldErrors) add(field, msg string) {
	if prev, ok := f[field]; ok {
		f[field] = prev + "; " + msg
		return
	}
	f[field] = msg
}

// Has reports whether field has a failure containing msg.
func (f FieldErrors) Has(field, msg string) bool {
	return strings.Contains(f[field], msg)
}

// Err returns a validation error, or nil when there are no failures.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.Validation(map[string]string(f))
}

// Candidate is a transfer request that has not been submitted yet.
type Candidate struct {
	AssetID                int64
	OriginSectorID         int64
	OriginCustodianID      int64
	DestinationSectorID    *int64
	DestinationCustodianID *int64
	Reason                 string
}

// HasDestination reports whether any destination field is set.
func (c Candidate) HasDestination() bool {
	return c.DestinationSectorID != nil || c.DestinationCustodianID != nil
}

// RegistryView carries pre-fetched registry facts about a candidate.
// Populated by the caller; the validator performs no lookups.
type RegistryView struct {
	Asset                       *AssetSnapshot // nil when the asset does not exist
	HasPendingTransfer          bool
	DestinationSectorUnknown    bool
	DestinationCustodianUnknown bool
}

// Validate checks a candidate against every structural rule and collects
// all failures. An empty result means the candidate may be submitted.
func Validate(c Candidate, view RegistryView) FieldErrors {
	errs := FieldErrors{}

	validateAsset(errs, c, view)
	validateDestination(errs, c, view)

	if utf8.RuneCountInString(strings.TrimSpace(c.Reason)) < MinReasonLength {
		errs.add(FieldReason, MsgReasonTooShort)
	}

	return errs
}

func validateAsset(errs FieldErrors, c Candidate, view RegistryView) {
	switch {
	case c.AssetID == 0:
		errs.add(FieldAssetID, MsgAssetRequired)
		return
	case view.Asset == nil:
		errs.add(FieldAssetID, MsgAssetNotFound)
		return
	case view.Asset.Status == AssetRetired:
		errs.add(FieldAssetID, MsgAssetRetired)
	}
	if view.Asset.SectorID != c.OriginSectorID || view.Asset.CustodianID != c.OriginCustodianID {
		errs.add(FieldAssetID, MsgStaleOrigin)
	}
	if view.HasPendingTransfer {
		errs.add(FieldAssetID, MsgPendingTransferExists)
	}
}

func validateDestination(errs FieldErrors, c Candidate, view RegistryView) {
	if !c.HasDestination() {
		errs.add(FieldDestination, MsgDestinationRequired)
	}

	sectorChanges := false
	if c.DestinationSectorID != nil {
		dest := *c.DestinationSectorID
		switch {
		case dest == c.OriginSectorID:
			errs.add(FieldDestinationSectorID, MsgSameSector)
		case view.DestinationSectorUnknown:
			errs.add(FieldDestinationSectorID, MsgSectorNotFound)
		default:
			sectorChanges = view.Asset == nil || dest != view.Asset.SectorID
		}
	}

	custodianChanges := false
	if c.DestinationCustodianID != nil {
		dest := *c.DestinationCustodianID
		switch {
		case dest == c.OriginCustodianID:
			errs.add(FieldDestinationCustodianID, MsgSameCustodian)
		case view.DestinationCustodianUnknown:
			errs.add(FieldDestinationCustodianID, MsgCustodianNotFound)
		default:
			custodianChanges = view.Asset == nil || dest != view.Asset.CustodianID
		}
	}

	// The origin snapshot may be stale: a destination that matches the
	// asset's current registry state is not a change either.
	if !sectorChanges && !custodianChanges {
		errs.add(FieldDestination, MsgNoEffectiveChange)
	}
}

// ValidateRejection checks the input of a reject action.
func ValidateRejection(reason string) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(reason) == "" {
		errs.add(FieldRejectionReason, MsgRejectionReasonMissing)
	}
	return errs
}
