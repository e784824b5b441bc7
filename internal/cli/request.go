package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/assetflow/internal/app"
	"github.com/example/assetflow/internal/core/transfer"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
)

// ErrRequestCancelled is returned when the user abandons the request wizard.
var ErrRequestCancelled = errors.New("transfer request cancelled")

var errInputClosed = errors.New("input closed before the request was complete")

// requestOptions holds values supplied as flags. Anything missing is
// prompted for.
type requestOptions struct {
	AssetID     int64
	SectorID    int64
	CustodianID int64
	Reason      string
	Yes         bool
}

func (o requestOptions) destinationGiven() bool {
	return (o.SectorID != 0 || o.CustodianID != 0) && o.Reason != ""
}

func (o requestOptions) destination() transfer.DestinationInput {
	input := transfer.DestinationInput{Reason: o.Reason}
	if o.SectorID != 0 {
		input.SectorID = &o.SectorID
	}
	if o.CustodianID != 0 {
		input.CustodianID = &o.CustodianID
	}
	return input
}

// runTransferRequest walks the wizard to a submitted request. Values that
// came from flags are not re-prompted: a failure on them is returned.
func runTransferRequest(ctx context.Context, w *app.TransferWizard, opts requestOptions, in io.Reader, out io.Writer) (*primary.SubmitResult, error) {
	p := &prompter{in: bufio.NewReader(in), out: out}

	for !w.State().IsFinished() {
		switch w.State().Step() {
		case transfer.StepAssetSelection:
			assetID := opts.AssetID
			if assetID == 0 {
				var err error
				if assetID, err = p.chooseAsset(ctx, w); err != nil {
					return nil, err
				}
			}
			if err := w.SelectAsset(ctx, assetID); err != nil {
				if opts.AssetID != 0 || (!apperrors.Is(err, apperrors.KindValidation) && !apperrors.Is(err, apperrors.KindPermission)) {
					return nil, err
				}
				p.report(err)
			}

		case transfer.StepDestination:
			input := opts.destination()
			if !opts.destinationGiven() {
				var err error
				if input, err = p.askDestination(w.State().Draft()); err != nil {
					return nil, err
				}
			}
			if err := w.SetDestination(ctx, input); err != nil {
				if opts.destinationGiven() || !apperrors.Is(err, apperrors.KindValidation) {
					return nil, err
				}
				p.report(err)
			}

		case transfer.StepConfirmation:
			p.summary(w.State().Draft())
			answer := "y"
			if !opts.Yes {
				var err error
				if answer, err = p.ask("Submit this request? [y/N/b=back] "); err != nil {
					return nil, err
				}
			}
			switch strings.ToLower(answer) {
			case "y", "yes":
				result, err := w.Submit(ctx)
				if err == nil {
					return result, nil
				}
				if opts.Yes || !apperrors.Is(err, apperrors.KindValidation) {
					return nil, err
				}
				p.report(err)
			case "b", "back":
				if err := w.Back(); err != nil {
					return nil, err
				}
			default:
				if err := w.Cancel(); err != nil {
					return nil, err
				}
				return nil, ErrRequestCancelled
			}
		}
	}
	return nil, fmt.Errorf("request wizard already %s", w.State().Step())
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errInputClosed
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) askInt(prompt string) (int64, error) {
	for {
		raw, err := p.ask(prompt)
		if err != nil {
			return 0, err
		}
		if raw == "" {
			return 0, nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && v > 0 {
			return v, nil
		}
		fmt.Fprintf(p.out, "  %q is not a valid ID\n", raw)
	}
}

func (p *prompter) chooseAsset(ctx context.Context, w *app.TransferWizard) (int64, error) {
	candidates, err := w.CandidateAssets(ctx)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("no assets available for you to transfer")
	}

	fmt.Fprintln(p.out, "\nAssets you can transfer:")
	for _, a := range candidates {
		fmt.Fprintf(p.out, "  %-5d %-10s sector %d, custodian %d  %s\n", a.ID, a.Tag, a.SectorID, a.CustodianID, a.Description)
	}
	for {
		id, err := p.askInt("Asset ID: ")
		if err != nil {
			return 0, err
		}
		if id != 0 {
			return id, nil
		}
	}
}

func (p *prompter) askDestination(draft transfer.Candidate) (transfer.DestinationInput, error) {
	var input transfer.DestinationInput
	fmt.Fprintf(p.out, "\nAsset %d is in sector %d with custodian %d. Leave blank to keep.\n",
		draft.AssetID, draft.OriginSectorID, draft.OriginCustodianID)

	sector, err := p.askInt("Destination sector ID: ")
	if err != nil {
		return input, err
	}
	custodian, err := p.askInt("Destination custodian ID: ")
	if err != nil {
		return input, err
	}
	reason, err := p.ask("Reason: ")
	if err != nil {
		return input, err
	}

	if sector != 0 {
		input.SectorID = &sector
	}
	if custodian != 0 {
		input.CustodianID = &custodian
	}
	input.Reason = reason
	return input, nil
}

func (p *prompter) summary(draft transfer.Candidate) {
	fmt.Fprintf(p.out, "\nTransfer asset %d\n", draft.AssetID)
	fmt.Fprintf(p.out, "  from: sector %d, custodian %d\n", draft.OriginSectorID, draft.OriginCustodianID)
	if draft.DestinationSectorID != nil {
		fmt.Fprintf(p.out, "  to sector:    %d\n", *draft.DestinationSectorID)
	}
	if draft.DestinationCustodianID != nil {
		fmt.Fprintf(p.out, "  to custodian: %d\n", *draft.DestinationCustodianID)
	}
	fmt.Fprintf(p.out, "  reason: %s\n", draft.Reason)
}

func (p *prompter) report(err error) {
	fmt.Fprintf(p.out, "✗ %s\n", describeError(err))
}
