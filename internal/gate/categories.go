package gate

import (
	"sort"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/skills"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// Occupational categories
const (
	SoftwareEngineering = "software_engineering"
	DataScience         = "data_science"
	ITOperations        = "it_operations"
	ProductManagement   = "product_management"
	Design              = "design"
	RecruitingHR        = "recruiting_hr"
	Sales               = "sales"
	Marketing           = "marketing"
	FinanceAccounting   = "finance_accounting"
	Healthcare          = "healthcare"
	Education           = "education"
	ConstructionTrades  = "construction_trades"
	Manufacturing       = "manufacturing"
	Logistics           = "logistics"
	Legal               = "legal"
	CustomerSupport     = "customer_support"
	Hospitality         = "hospitality"
)

// Relations between two category sets
const (
	RelationSame      = "same"
	RelationAdjacent  = "adjacent"
	RelationUnrelated = "unrelated"
	RelationUnknown   = "unknown"
)

// categoryKeywords are matched on token boundaries after normalization, so
// aliases such as "HR" or "ATS" resolve before comparison.
var categoryKeywords = map[string][]string{
	SoftwareEngineering: {
		"software", "software engineer", "developer", "programmer", "programming",
		"backend", "frontend", "full stack", "devops", "site reliability",
		"javascript", "typescript", "java", "kubernetes", "microservice",
		"web development", "mobile development",
	},
	DataScience: {
		"data science", "data scientist", "machine learning", "data analyst",
		"analytics", "statistics", "deep learning", "data engineering",
	},
	ITOperations: {
		"it support", "system administrator", "sysadmin", "network administrator",
		"help desk", "it operations", "network engineer", "desktop support",
	},
	ProductManagement: {
		"product manager", "product management", "product owner", "roadmap",
	},
	Design: {
		"designer", "user experience", "user interface", "graphic design",
		"visual design", "figma", "interaction design",
	},
	RecruitingHR: {
		"recruiting", "recruiter", "recruitment", "talent acquisition",
		"human resources", "sourcing", "hiring", "ats", "people operations",
		"onboarding", "human resources information system",
	},
	Sales: {
		"sales", "account executive", "business development", "quota",
		"account manager", "salesforce", "cold calling",
	},
	Marketing: {
		"marketing", "search engine optimization", "brand", "demand generation",
		"social media", "campaign", "copywriting",
	},
	FinanceAccounting: {
		"finance", "financial", "accounting", "accountant", "bookkeeping",
		"audit", "cpa", "tax", "generally accepted accounting principles",
	},
	Healthcare: {
		"healthcare", "nurse", "nursing", "registered nurse", "clinical",
		"patient", "physician", "medical", "hospital", "pharmacy",
	},
	Education: {
		"teacher", "teaching", "education", "curriculum", "classroom",
		"tutor", "instructor",
	},
	ConstructionTrades: {
		"construction", "carpenter", "carpentry", "electrician", "plumber",
		"plumbing", "welding", "welder", "osha", "general contractor", "hvac",
		"framing", "concrete", "journeyman", "job site", "blueprint",
	},
	Manufacturing: {
		"manufacturing", "production line", "assembly", "machinist", "lean",
		"six sigma", "quality control", "cnc",
	},
	Logistics: {
		"logistics", "supply chain", "warehouse", "forklift", "shipping",
		"inventory", "freight", "dispatch", "fleet",
	},
	Legal: {
		"legal", "attorney", "lawyer", "paralegal", "litigation", "contract law",
	},
	CustomerSupport: {
		"customer support", "customer service", "call center",
		"customer success", "support specialist", "zendesk",
	},
	Hospitality: {
		"hospitality", "restaurant", "hotel", "chef", "bartender",
		"front desk", "catering",
	},
}

var keywordTokens = map[string][][]string{}

// adjacentPairs is symmetric; lookups normalize the pair order.
var adjacentPairs = map[[2]string]bool{}

func init() {
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			keywordTokens[category] = append(keywordTokens[category], skills.Tokens(kw))
		}
	}

	pairs := [][2]string{
		{SoftwareEngineering, DataScience},
		{SoftwareEngineering, ITOperations},
		{SoftwareEngineering, ProductManagement},
		{SoftwareEngineering, Design},
		{DataScience, ProductManagement},
		{ProductManagement, Design},
		{ProductManagement, Marketing},
		{Design, Marketing},
		{Sales, Marketing},
		{Sales, CustomerSupport},
		{RecruitingHR, Sales},
		{ITOperations, CustomerSupport},
		{FinanceAccounting, Legal},
		{ConstructionTrades, Manufacturing},
		{ConstructionTrades, Logistics},
		{Manufacturing, Logistics},
		{Hospitality, CustomerSupport},
	}
	for _, p := range pairs {
		adjacentPairs[pairKey(p[0], p[1])] = true
	}
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Adjacent reports whether two categories are neighbours in the adjacency table
func Adjacent(a, b string) bool {
	return adjacentPairs[pairKey(a, b)]
}

// Categories lists every known category, sorted
func Categories() []string {
	out := make([]string, 0, len(categoryKeywords))
	for c := range categoryKeywords {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Signal weights. A category needs minCategoryScore to count, so a single
// stray skill cannot classify a document on its own.
const (
	strongSignal     = 2
	weakSignal       = 1
	minCategoryScore = 2
)

type signal struct {
	text   string
	weight int
}

// classify returns the categories whose keywords the signals mention, strongest first.
func classify(signals []signal) []string {
	tokenized := make([][]string, 0, len(signals))
	for _, s := range signals {
		tokenized = append(tokenized, skills.Tokens(s.text))
	}

	scores := make(map[string]int)
	for category, needles := range keywordTokens {
		for _, needle := range needles {
			for i, haystack := range tokenized {
				if skills.ContainsTokens(haystack, needle) {
					scores[category] += signals[i].weight
				}
			}
		}
	}

	var out []string
	for category, score := range scores {
		if score >= minCategoryScore {
			out = append(out, category)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if scores[out[i]] != scores[out[j]] {
			return scores[out[i]] > scores[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// ClassifyResume places a resume into occupational categories from its domains, titles, and skills.
func ClassifyResume(resume *types.ParsedResume) []string {
	if resume == nil {
		return nil
	}
	var signals []signal
	signals = appendSignals(signals, strongSignal, resume.Domains...)
	signals = appendSignals(signals, strongSignal, resume.Titles...)
	signals = appendSignals(signals, weakSignal, resume.SkillNames()...)
	signals = appendSignals(signals, weakSignal, resume.Tools...)
	return classify(signals)
}

// ClassifyJD places a job description into occupational categories from its
// role title, domains, titles, skills, and requirement text.
func ClassifyJD(jd *types.ParsedJD) []string {
	if jd == nil {
		return nil
	}
	var signals []signal
	signals = appendSignals(signals, strongSignal, jd.RoleTitle)
	signals = appendSignals(signals, strongSignal, jd.Domains...)
	signals = appendSignals(signals, strongSignal, jd.Titles...)
	signals = appendSignals(signals, weakSignal, jd.SkillNames()...)
	signals = appendSignals(signals, weakSignal, jd.Tools...)
	for _, r := range jd.Requirements {
		signals = appendSignals(signals, weakSignal, r.Description)
	}
	return classify(signals)
}

func appendSignals(signals []signal, weight int, texts ...string) []signal {
	for _, t := range texts {
		if t != "" {
			signals = append(signals, signal{text: t, weight: weight})
		}
	}
	return signals
}

// Relate returns the best relation over all category pairs.
func Relate(resumeCategories, jdCategories []string) string {
	if len(resumeCategories) == 0 || len(jdCategories) == 0 {
		return RelationUnknown
	}
	best := RelationUnrelated
	for _, r := range resumeCategories {
		for _, j := range jdCategories {
			if r == j {
				return RelationSame
			}
			if Adjacent(r, j) {
				best = RelationAdjacent
			}
		}
	}
	return best
}
