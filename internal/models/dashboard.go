package models

// DashboardSummary backs the overview cards.
type DashboardSummary struct {
	ApplicationsByStatus     map[string]int `json:"applicationsByStatus"`
	TotalApplications        int            `json:"totalApplications"`
	ActiveGigs               int            `json:"activeGigs"`
	Vehicles                 int            `json:"vehicles"`
	VehiclesNeedingAttention int            `json:"vehiclesNeedingAttention"`
	Credit                   CreditSummary  `json:"credit"`
	UpcomingFollowUps        []Application  `json:"upcomingFollowUps"`
}
