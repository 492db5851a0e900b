package model

// Status is the three-way derived workflow status of a request. Exactly one
// of the three values holds for any record.
type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPending  Status = "pending"
)

// ProjectBucket is the five-way display status used by tables and charts,
// refining StatusApproved by execution state.
type ProjectBucket string

const (
	BucketApproved  ProjectBucket = "approved"
	BucketOngoing   ProjectBucket = "ongoing"
	BucketCompleted ProjectBucket = "completed"
	BucketPending   ProjectBucket = "pending"
	BucketRejected  ProjectBucket = "rejected"
)

// ClassifyStatus derives the workflow status from the stored approval flag
// and status string. It is the single source of truth for the three-way
// classification: approved iff isApproved is true; rejected iff isApproved
// is false and status is "rejected"; pending otherwise.
func ClassifyStatus(isApproved *bool, status string) Status {
	if isApproved != nil && *isApproved {
		return StatusApproved
	}
	if isApproved != nil && !*isApproved && status == RequestStatusRejected {
		return StatusRejected
	}
	return StatusPending
}

// ClassifyProject refines ClassifyStatus with the engineer-maintained
// project status: approved records in progress are "ongoing", finished ones
// "completed", the rest stay "approved".
func ClassifyProject(isApproved *bool, status, projectStatus string) ProjectBucket {
	switch ClassifyStatus(isApproved, status) {
	case StatusRejected:
		return BucketRejected
	case StatusPending:
		return BucketPending
	}
	switch projectStatus {
	case ProjectInProgress:
		return BucketOngoing
	case ProjectFinished:
		return BucketCompleted
	default:
		return BucketApproved
	}
}

// WorkflowStatus is a convenience wrapper over ClassifyStatus.
func (r *Request) WorkflowStatus() Status {
	return ClassifyStatus(r.IsApproved, r.Status)
}

// DisplayBucket is a convenience wrapper over ClassifyProject.
func (r *Request) DisplayBucket() ProjectBucket {
	return ClassifyProject(r.IsApproved, r.Status, r.ProjectStatus)
}
