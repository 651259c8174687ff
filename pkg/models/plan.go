package models

// PlanRequest is the user's goal and timeframe for a generated study plan.
type PlanRequest struct {
	Goal  string `json:"goal" validate:"notblank,max=2000"`
	Weeks int    `json:"weeks" validate:"min=1,max=52"`
}

// RawPlanItem is one element of a model-proposed plan before validation.
// Fields are kept as the model sent them.
type RawPlanItem struct {
	Title    string
	Priority string
}

// PlanResult reports the outcome of a plan generation.
type PlanResult struct {
	Message   string `json:"message"`
	TaskCount int    `json:"taskCount"`
	// Proposed is how many items the model returned before validation.
	Proposed int `json:"proposed"`
}

// PlanSuccessMessage is returned with every successful plan generation.
const PlanSuccessMessage = "Study plan generated successfully!"
