package entity

// Kind identifies which entity a row belongs to.
type Kind int

const (
	// KindList is a task list.
	KindList Kind = iota + 1
	// KindTask is a single task owned by a list.
	KindTask
)

// Table returns the storage table for the entity kind.
func (k Kind) Table() string {
	switch k {
	case KindList:
		return "lists"
	case KindTask:
		return "tasks"
	default:
		return "unknown"
	}
}

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindTask:
		return "task"
	default:
		return "unknown"
	}
}

// Column names shared by both entities.
const (
	ColID = "_id"
)

// List columns.
const (
	ColAccountName = "account_name"
	ColAccountType = "account_type"
	ColListName    = "name"
	ColColor       = "color"
	ColVisible     = "visible"
	ColSyncEnabled = "sync_enabled"
	ColSyncID      = "sync_id"
	ColSyncVersion = "sync_version"
	ColOwner       = "owner"
)

// Task columns.
const (
	ColListID          = "list_id"
	ColTitle           = "title"
	ColDescription     = "description"
	ColStatus          = "status"
	ColPercentComplete = "percent_complete"
	ColDTStart         = "dtstart"
	ColDue             = "due"
	ColTZ              = "tz"
	ColIsAllDay        = "is_allday"
	ColDuration        = "duration"
	ColRRule           = "rrule"
	ColInstancesStale  = "instances_stale"
)

// TimingColumns are the task columns that affect the materialized instances
// view. Touching any of them marks the task's instances stale.
var TimingColumns = []string{
	ColDTStart,
	ColDue,
	ColTZ,
	ColIsAllDay,
	ColDuration,
	ColRRule,
}

// Status enumerates task progress states.
type Status int64

const (
	// StatusNeedsAction is the initial state of a task.
	StatusNeedsAction Status = iota
	// StatusInProcess marks a task as started.
	StatusInProcess
	// StatusCompleted marks a task as done.
	StatusCompleted
	// StatusCancelled marks a task as abandoned.
	StatusCancelled
)

// IsValid reports whether s is one of the defined status values.
func (s Status) IsValid() bool {
	return s >= StatusNeedsAction && s <= StatusCancelled
}

func (s Status) String() string {
	switch s {
	case StatusNeedsAction:
		return "needs-action"
	case StatusInProcess:
		return "in-process"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseStatus maps a status name back to its value.
// Returns false if the name is not a defined status.
func ParseStatus(name string) (Status, bool) {
	switch name {
	case "needs-action":
		return StatusNeedsAction, true
	case "in-process":
		return StatusInProcess, true
	case "completed":
		return StatusCompleted, true
	case "cancelled":
		return StatusCancelled, true
	default:
		return 0, false
	}
}
