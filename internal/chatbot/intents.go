// internal/chatbot/intents.go
package chatbot

// QueryType is the closed set of supported template intents. Each variant
// carries its own pre-authored parameterized Cypher and the entity keys the
// template needs, so the template-entity coupling is checked structurally
// instead of through a loosely typed string lookup.
type QueryType string

const (
	QueryProgramsByUniversity QueryType = "find_programs_by_university"
	QueryProgramsByIELTS      QueryType = "find_programs_by_ielts"
	QueryVisaInfo             QueryType = "visa_info"
	QueryVisaEligibility      QueryType = "visa_eligibility"
	QuerySettlementInfo       QueryType = "settlement_info"
	QueryComprehensivePathway QueryType = "comprehensive_pathway"

	// QueryFallback marks questions with no matching template; the reply is
	// generated from general knowledge with an explicit disclaimer.
	QueryFallback QueryType = "fallback"
)

// queryTemplate couples a static Cypher template with the parameter names it
// requires. Templates are fixed text, never generated per request: they trade
// generality for predictability.
type queryTemplate struct {
	cypher       string
	requiredKeys []string
}

var queryTemplates = map[QueryType]queryTemplate{
	QueryProgramsByUniversity: {
		requiredKeys: []string{"university_name", "level"},
		cypher: `
MATCH (u:University {name: $university_name})
MATCH (u)-[:HAS_PROGRAMS]->(pg:ProgramGroup)
      -[:HAS_LEVEL]->(pl:ProgramLevel {name: $level})
      -[:OFFERS]->(p:Program)
OPTIONAL MATCH (p)-[:HAS_REQUIRED]->(es:ExamScore)<-[:HAS_SCORE]-(e:Exam)
RETURN u.name AS university,
       p.name AS program_name,
       p.url AS program_url,
       p.starting_months AS starting_months,
       collect({exam: e.name, score: es.value}) AS requirements
LIMIT 10`,
	},
	QueryProgramsByIELTS: {
		requiredKeys: []string{"max_score"},
		cypher: `
MATCH (p:Program)-[:HAS_REQUIRED]->(es:ExamScore)
      <-[:HAS_SCORE]-(e:Exam {name: "IELTS"})
WHERE es.value <= $max_score
MATCH (p)<-[:OFFERS]-(pl:ProgramLevel)
      <-[:HAS_LEVEL]-(pg:ProgramGroup)
      <-[:HAS_PROGRAMS]-(u:University)
RETURN u.name AS university,
       p.name AS program_name,
       es.value AS ielts_required,
       p.url AS url
ORDER BY es.value ASC
LIMIT 10`,
	},
	QueryVisaInfo: {
		requiredKeys: []string{"subclass"},
		cypher: `
MATCH (v:Visa {subclass: $subclass})
OPTIONAL MATCH (v)-[:HAS_ABOUT_INFO]->(a:AboutInfo)
RETURN v.name_visa AS visa_name,
       v.subclass AS subclass,
       v.url AS official_url,
       collect({field: a.field, content: a.content}) AS about_information`,
	},
	QueryVisaEligibility: {
		requiredKeys: []string{"subclass"},
		cypher: `
MATCH (v:Visa {subclass: $subclass})
      -[:HAS_ELIGIBILITY_GROUP]->(eg:EligibilityGroup)
      -[:HAS_REQUIREMENT]->(er:EligibilityRequirement)
RETURN v.name_visa AS visa_name,
       eg.group_key AS requirement_group,
       collect({key: er.key, content: er.content}) AS requirements
ORDER BY eg.group_key`,
	},
	QuerySettlementInfo: {
		requiredKeys: []string{"keyword"},
		cypher: `
MATCH (cat:SettlementCategory)
WHERE toLower(cat.name) CONTAINS toLower($keyword)
MATCH (cat)-[:HAS_GROUP]->(tg:SettlementTaskGroup)
      -[:CONTAINS_SETTLEMENT_PAGE]->(sp:SettlementPage)
RETURN cat.name AS category,
       collect(DISTINCT {
           task_group: tg.name,
           page_title: sp.title,
           page_url: sp.url
       }) AS related_info
LIMIT 5`,
	},
	QueryComprehensivePathway: {
		requiredKeys: []string{"field"},
		cypher: `
MATCH (p:Program)-[:FOCUSES_ON]->(subj:Subject)
WHERE toLower(subj.name) CONTAINS toLower($field)
MATCH (p)<-[:OFFERS]-(pl:ProgramLevel)<-[:HAS_LEVEL]-(pg:ProgramGroup)
      <-[:HAS_PROGRAMS]-(u:University)
OPTIONAL MATCH (p)-[:HAS_REQUIRED]->(es:ExamScore)<-[:HAS_SCORE]-(e:Exam)
WITH u, p, collect({exam: e.name, score: es.value}) AS requirements
LIMIT 3
MATCH (v:Visa {subclass: "500"})
MATCH (vpr:Visa)
WHERE vpr.subclass IN ["189", "190"]
RETURN {
    study: {
        university: u.name,
        program: p.name,
        requirements: requirements,
        url: p.url
    },
    student_visa: {
        name: v.name_visa,
        subclass: v.subclass
    },
    pr_visas: collect(DISTINCT {
        name: vpr.name_visa,
        subclass: vpr.subclass
    })
} AS pathway`,
	},
}

// Template looks up the static query for a classified type.
func Template(qt QueryType) (queryTemplate, bool) {
	tpl, ok := queryTemplates[qt]
	return tpl, ok
}

// KnownQueryTypes lists the dispatchable intents (excluding fallback).
func KnownQueryTypes() []QueryType {
	out := make([]QueryType, 0, len(queryTemplates))
	for qt := range queryTemplates {
		out = append(out, qt)
	}
	return out
}
