package templates

import (
	"fmt"

	"github.com/HendryAvila/mcagent/internal/evidence"
	"github.com/HendryAvila/mcagent/internal/miner"
)

// ─── Document ────────────────────────────────────────────────────────────────

// Document is a filled PRD.
type Document struct {
	DocumentMeta              DocumentMeta           `json:"document_meta"`
	ProductOverview           ProductOverview        `json:"product_overview"`
	FeatureSpecification      FeatureSpecification   `json:"feature_specification"`
	UserStories               []UserStory            `json:"user_stories"`
	FunctionalRequirements    []Requirement          `json:"functional_requirements"`
	TechnicalRequirements     []Requirement          `json:"technical_requirements"`
	EvidenceSummary           EvidenceSummary        `json:"evidence_summary"`
	ConstraintsAndAssumptions ConstraintsAssumptions `json:"constraints_and_assumptions"`
	RiskAnalysis              RiskAnalysis           `json:"risk_analysis"`
	SuccessMetrics            []Metric               `json:"success_metrics"`
	Appendices                Appendices             `json:"appendices"`
}

type DocumentMeta struct {
	Version         string `json:"version"`
	GeneratedAt     string `json:"generated_at"`
	TemplateVersion string `json:"template_version"`
}

type ProductOverview struct {
	ProductName   string `json:"product_name"`
	Description   string `json:"description"`
	TargetUser    string `json:"target_user"`
	BusinessValue string `json:"business_value"`
}

type FeatureSpecification struct {
	FeatureID    string   `json:"feature_id"`
	FeatureTitle string   `json:"feature_title"`
	Priority     string   `json:"priority"`
	Status       string   `json:"status"`
	Categories   []string `json:"categories"`
}

type UserStory struct {
	ID                 string   `json:"id"`
	Role               string   `json:"role"`
	Action             string   `json:"action"`
	Benefit            string   `json:"benefit"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

// Requirement is a functional or technical requirement. Functional ones carry
// a priority, technical ones carry details.
type Requirement struct {
	ID          string `json:"id"`
	Requirement string `json:"requirement"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
	Details     string `json:"details,omitempty"`
}

type EvidenceSummary struct {
	TotalOccurrences string `json:"total_occurrences"`
	TimeRange        string `json:"time_range"`
	EvidenceQuality  string `json:"evidence_quality"`
	SamplingMethod   string `json:"sampling_method"`
}

type ConstraintsAssumptions struct {
	Constraints []string `json:"constraints"`
	Assumptions []string `json:"assumptions"`
}

type Risk struct {
	Risk       string `json:"risk"`
	Impact     string `json:"impact"`
	Mitigation string `json:"mitigation"`
}

type RiskAnalysis struct {
	TechnicalRisks []Risk `json:"technical_risks"`
	BusinessRisks  []Risk `json:"business_risks"`
}

type Metric struct {
	Metric            string `json:"metric"`
	Target            string `json:"target"`
	MeasurementMethod string `json:"measurement_method"`
}

type Appendices struct {
	EvidencePack *evidence.Pack `json:"evidence_pack"`
}

// NewDocument fills the PRD template for c. pack may be nil.
func NewDocument(c miner.Candidate, pack *evidence.Pack) *Document {
	quality := "medium"
	if pack != nil && pack.Uncertainty.ConfidenceLevel != "" {
		quality = pack.Uncertainty.ConfidenceLevel
	}

	return &Document{
		DocumentMeta: DocumentMeta{
			Version:         "1.0",
			GeneratedAt:     timeNow().Format("2006-01-02T15:04:05.000000"),
			TemplateVersion: "v1",
		},
		ProductOverview: ProductOverview{
			ProductName:   c.Title,
			Description:   "Product requirements generated from user behavior analysis.",
			TargetUser:    "Business users whose work is captured by MineContext.",
			BusinessValue: "Automatically spot repetitive behavior patterns to save time.",
		},
		FeatureSpecification: FeatureSpecification{
			FeatureID:    c.CandidateID,
			FeatureTitle: c.Title,
			Priority:     "P1",
			Status:       "Identified",
			Categories:   []string{"Workflow Automation", "Behavior Mining"},
		},
		UserStories: []UserStory{
			{
				ID:                 "US-001",
				Role:               "Developer",
				Action:             "identify repetitive development tasks",
				Benefit:            "less repeated work and faster delivery",
				AcceptanceCriteria: []string{"Similar tasks are detected automatically", "Task grouping suggestions are offered"},
			},
			{
				ID:                 "US-002",
				Role:               "Team Lead",
				Action:             "review the team's behavior patterns",
				Benefit:            "understand working habits and plan resources",
				AcceptanceCriteria: []string{"Behavior patterns are visualised", "An analysis report is available"},
			},
		},
		FunctionalRequirements: []Requirement{
			{ID: "FR-001", Requirement: "Fetch activity data from MineContext", Description: "Read activity records for a time window from the MineContext API.", Priority: "P0"},
			{ID: "FR-002", Requirement: "Cluster activities into behavior patterns", Description: "Group similar activities to surface repeated behavior.", Priority: "P0"},
			{ID: "FR-003", Requirement: "Generate evidence packs", Description: "Attach time, source and excerpt evidence to every candidate.", Priority: "P1"},
		},
		TechnicalRequirements: []Requirement{
			{ID: "TR-001", Requirement: "Local cache", Description: "Cache MineContext data to avoid repeated requests.", Details: "SQLite store keyed by day and window."},
			{ID: "TR-002", Requirement: "Similarity scoring", Description: "Text similarity over titles and keywords.", Details: "The similarity threshold is configurable."},
		},
		EvidenceSummary: EvidenceSummary{
			TotalOccurrences: fmt.Sprint(c.Freq),
			TimeRange:        timeRange(c.TimeRange),
			EvidenceQuality:  quality,
			SamplingMethod:   "Time-dispersed sampling",
		},
		ConstraintsAndAssumptions: ConstraintsAssumptions{
			Constraints: []string{"Depends on MineContext API availability", "The similarity threshold needs tuning"},
			Assumptions: []string{"User activity is recorded accurately", "Similar titles mean similar behavior"},
		},
		RiskAnalysis: RiskAnalysis{
			TechnicalRisks: []Risk{{Risk: "MineContext API unavailable", Impact: "high", Mitigation: "Local cache plus offline sample data"}},
			BusinessRisks:  []Risk{{Risk: "Behavior pattern misidentified", Impact: "medium", Mitigation: "Human review plus uncertainty statements"}},
		},
		SuccessMetrics: []Metric{
			{Metric: "Identification accuracy", Target: ">80%", MeasurementMethod: "Manual verification"},
			{Metric: "User adoption", Target: ">60%", MeasurementMethod: "Usage statistics"},
		},
		Appendices: Appendices{EvidencePack: pack},
	}
}

func timeRange(tr miner.TimeRange) string {
	start, end := "N/A", "N/A"
	if tr.Start != nil {
		start = *tr.Start
	}
	if tr.End != nil {
		end = *tr.End
	}
	return start + " ~ " + end
}
