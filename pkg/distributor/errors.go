package distributor

import "errors"

// Error taxonomy for distributor operations. All are rejections of the
// current operation with no partial state change; callers branch with
// errors.Is.
var (
	// ErrUnauthorized is returned when the caller lacks the administrative
	// capability an operation requires.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrCampaignNotFound is returned for operations against an unknown
	// campaign id.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrDepositFailed wraps a failed value transfer into custody.
	ErrDepositFailed = errors.New("deposit transfer failed")

	// ErrClaimUnbegun is returned for claims before the campaign window
	// opens.
	ErrClaimUnbegun = errors.New("claim window has not begun")

	// ErrClaimEnded is returned for claims after the campaign window closes.
	ErrClaimEnded = errors.New("claim window has ended")

	// ErrAlreadyClaimed is returned when the bitmap bit for the index is
	// already set.
	ErrAlreadyClaimed = errors.New("index already claimed")

	// ErrIncorrectAllocation is returned when the leaf recomputed from the
	// caller's (index, identity, amount) does not prove into the campaign
	// root: wrong index, wrong amount, wrong caller, or corrupted proof.
	ErrIncorrectAllocation = errors.New("proof does not match campaign root")

	// ErrPayoutFailed wraps a failed value transfer out of custody during a
	// claim. The claim is rolled back in full.
	ErrPayoutFailed = errors.New("claim payout transfer failed")
)
