package models

// Risk profile identifiers. Fixed set of three tiers.
const (
	ProfileConservative = 1
	ProfileModerate     = 2
	ProfileAggressive   = 3
)

// RiskProfile is one of the three fixed investor categories.
type RiskProfile struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RiskProfiles is the fixed catalog of investor profiles, in ID order.
var RiskProfiles = []RiskProfile{
	{ID: ProfileConservative, Name: "Conservative", Description: "Prefers safety and low volatility."},
	{ID: ProfileModerate, Name: "Moderate", Description: "Seeks a balance between safety and returns."},
	{ID: ProfileAggressive, Name: "Aggressive", Description: "Tolerates high risk in pursuit of higher returns."},
}

// RiskProfileByID returns the profile for an ID, or false if unknown.
func RiskProfileByID(id int) (RiskProfile, bool) {
	for _, p := range RiskProfiles {
		if p.ID == id {
			return p, true
		}
	}
	return RiskProfile{}, false
}

// AllocationTarget is one line of a recommended portfolio: an instrument and
// the percentage of investable cash it should receive.
type AllocationTarget struct {
	Instrument Instrument `json:"instrument"`
	Percentage int64      `json:"percentage"`
}

// Recommendation is the transient model portfolio computed from an account's
// risk profile at request time. Percentages sum to 100 by construction of
// each strategy.
type Recommendation struct {
	Profile RiskProfile        `json:"profile"`
	Targets []AllocationTarget `json:"targets"`
}

// QuestionnaireAnswers carries the six risk questionnaire answers. Each
// answer is a single option letter ("A".."F" depending on the question).
type QuestionnaireAnswers struct {
	Age             string `json:"age"`
	Finances        string `json:"finances"`
	Objective       string `json:"objective"`
	Liquidity       string `json:"liquidity"`
	LossReaction    string `json:"loss_reaction"`
	MarketKnowledge string `json:"market_knowledge"`
}
