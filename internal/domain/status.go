package domain

// Status is the lifecycle state of a PatronRequest.
type Status string

const (
	StatusSubmittedToDCB                 Status = "SUBMITTED_TO_DCB"
	StatusPatronVerified                 Status = "PATRON_VERIFIED"
	StatusResolved                       Status = "RESOLVED"
	StatusNoItemsAvailableAtAnyAgency    Status = "NO_ITEMS_AVAILABLE_AT_ANY_AGENCY"
	StatusRequestPlacedAtSupplyingAgency Status = "REQUEST_PLACED_AT_SUPPLYING_AGENCY"
	StatusConfirmed                      Status = "CONFIRMED"
	StatusRequestPlacedAtBorrowingAgency Status = "REQUEST_PLACED_AT_BORROWING_AGENCY"
	StatusRequestPlacedAtPickupAgency    Status = "REQUEST_PLACED_AT_PICKUP_AGENCY"
	StatusPickupTransit                  Status = "PICKUP_TRANSIT"
	StatusReceivedAtPickup               Status = "RECEIVED_AT_PICKUP"
	StatusReadyForPickup                 Status = "READY_FOR_PICKUP"
	StatusLoaned                         Status = "LOANED"
	StatusReturnTransit                  Status = "RETURN_TRANSIT"
	StatusCompleted                      Status = "COMPLETED"
	StatusFinalised                      Status = "FINALISED"
	StatusHandedOffAsLocal               Status = "HANDED_OFF_AS_LOCAL"
	StatusError                          Status = "ERROR"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusSubmittedToDCB,
	StatusPatronVerified,
	StatusResolved,
	StatusNoItemsAvailableAtAnyAgency,
	StatusRequestPlacedAtSupplyingAgency,
	StatusConfirmed,
	StatusRequestPlacedAtBorrowingAgency,
	StatusRequestPlacedAtPickupAgency,
	StatusPickupTransit,
	StatusReceivedAtPickup,
	StatusReadyForPickup,
	StatusLoaned,
	StatusReturnTransit,
	StatusCompleted,
	StatusFinalised,
	StatusHandedOffAsLocal,
	StatusError,
}

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusNoItemsAvailableAtAnyAgency, StatusFinalised, StatusHandedOffAsLocal:
		return true
	}
	return false
}

// IsTrackable reports whether the tracking loop should poll requests in s.
func (s Status) IsTrackable() bool {
	return s != "" && s != StatusError && !s.IsTerminal()
}

// Workflow is the fulfilment path chosen for a request at resolution time.
type Workflow string

const (
	WorkflowStandard       Workflow = "RET-STD"
	WorkflowPickupAnywhere Workflow = "RET-PUA"
	WorkflowLocal          Workflow = "RET-LOCAL"
)

func (w Workflow) String() string { return string(w) }

// IsCustom reports whether w is an operator-defined workflow code.
func (w Workflow) IsCustom() bool {
	switch w {
	case "", WorkflowStandard, WorkflowPickupAnywhere, WorkflowLocal:
		return false
	}
	return true
}

// NextExpectedStatus returns the status the engine waits for after s under
// workflow w. It returns "" for terminal states and ERROR. Before resolution
// the workflow is unknown and the standard path is assumed; custom workflows
// follow the standard path.
func NextExpectedStatus(s Status, w Workflow) Status {
	switch s {
	case StatusSubmittedToDCB:
		return StatusPatronVerified
	case StatusPatronVerified:
		return StatusResolved
	case StatusResolved:
		if w == WorkflowLocal {
			return StatusHandedOffAsLocal
		}
		return StatusRequestPlacedAtSupplyingAgency
	case StatusRequestPlacedAtSupplyingAgency:
		return StatusConfirmed
	case StatusConfirmed:
		if w == WorkflowPickupAnywhere {
			return StatusRequestPlacedAtPickupAgency
		}
		return StatusRequestPlacedAtBorrowingAgency
	case StatusRequestPlacedAtBorrowingAgency, StatusRequestPlacedAtPickupAgency:
		return StatusPickupTransit
	case StatusPickupTransit:
		return StatusReceivedAtPickup
	case StatusReceivedAtPickup:
		return StatusReadyForPickup
	case StatusReadyForPickup:
		return StatusLoaned
	case StatusLoaned:
		return StatusReturnTransit
	case StatusReturnTransit:
		return StatusCompleted
	case StatusCompleted:
		return StatusFinalised
	}
	return ""
}
