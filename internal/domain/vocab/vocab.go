// Package vocab holds the fixed term lists shared by the classifier, the
// keyword matcher and the match explainer, plus word-boundary helpers.
package vocab

import (
	"strings"
	"unicode"
)

// Tech is the technical-term vocabulary: languages, frameworks, cloud and
// infra, data and ML, and generic role terms. Entries are lower case.
var Tech = []string{
	// languages
	"python", "java", "javascript", "typescript", "go", "golang", "rust", "c++", "c#",
	"ruby", "php", "scala", "kotlin", "swift", "sql", "bash",
	// frameworks and runtimes
	"react", "angular", "vue", "node.js", "nodejs", "django", "flask", "fastapi", "spring",
	"rails", "next.js", ".net", "graphql", "rest", "grpc", "microservices",
	// cloud and infra
	"aws", "gcp", "azure", "docker", "kubernetes", "k8s", "terraform", "ansible", "ci/cd",
	"jenkins", "linux", "helm", "prometheus", "grafana", "serverless",
	// data and ml
	"postgresql", "postgres", "mysql", "mongodb", "redis", "kafka", "spark", "hadoop",
	"airflow", "elasticsearch", "snowflake", "dbt", "tableau", "pandas",
	"machine learning", "deep learning", "tensorflow", "pytorch", "nlp", "computer vision",
	"data science", "data engineering", "mlops", "llm",
	// role terms
	"frontend", "backend", "full stack", "fullstack", "devops", "sre", "qa", "mobile",
	"ios", "android", "security", "engineer", "developer", "architect", "designer",
	"data scientist", "data analyst", "product manager", "tech lead",
}

// Ambiguous vocabulary entries double as common first or last names. They only
// count as technical terms when written in lower case or as the whole query.
var Ambiguous = map[string]bool{
	"ruby": true, "swift": true, "rust": true, "go": true, "java": true,
	"scala": true, "rails": true, "spring": true, "flask": true,
	"kafka": true, "helm": true, "jenkins": true, "spark": true, "django": true,
}

// Domains are project domain keywords used to relate projects to a query.
var Domains = []string{
	"API", "Database", "Mobile", "Data", "Analytics", "Payment", "Migration",
	"Pipeline", "Frontend", "Backend", "Security", "ML", "Infrastructure",
}

// Triggers are search verbs and phrases that mark a query as a keyword search.
var Triggers = []string{
	"find", "search", "show", "who knows", "who has", "looking for",
	"expert in", "experts in", "people skilled in", "anyone with", "list",
}

// Filler words carry no matching signal in a keyword query.
var Filler = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true, "in": true,
	"on": true, "with": true, "for": true, "to": true, "at": true, "by": true, "me": true,
	"who": true, "someone": true, "somebody": true, "people": true, "person": true,
	"anyone": true, "experts": true, "expert": true, "experienced": true, "skilled": true,
	"knows": true, "know": true, "has": true, "have": true, "all": true, "any": true,
	"colleagues": true, "colleague": true, "employees": true, "employee": true,
	"is": true, "are": true, "that": true, "can": true, "good": true, "strong": true,
	"i": true, "need": true, "want": true, "please": true, "some": true,
}

// ContainsTerm reports whether term occurs in text on word boundaries.
// Both arguments are compared case-insensitively; term may contain
// punctuation ("node.js", "ci/cd", "c++").
func ContainsTerm(text, term string) bool {
	return IndexTerm(strings.ToLower(text), term) >= 0
}

// IndexTerm returns the byte offset of the first word-bounded occurrence of
// term in the lower-case text, or -1.
func IndexTerm(text, term string) int {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return -1
	}

	for from := 0; from <= len(text)-len(term); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return -1
		}
		start := from + i
		if boundaryBefore(text, start) && boundaryAfter(text, start+len(term)) {
			return start
		}
		from = start + 1
	}
	return -1
}

// ContainsTermCased is ContainsTerm but only counts occurrences written in lower case.
func ContainsTermCased(text, term string) bool {
	return ContainsTerm(lowerRunsOnly(text), term)
}

// Tokens splits text into lower-case word tokens. Punctuation inside a token
// ("node.js", "c++", "ci/cd") is kept; leading and trailing punctuation is dropped.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '(' || r == ')' || r == '!' || r == '?'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !isWordRune(r) && r != '+' && r != '#'
		})
		f = strings.TrimLeft(f, "+#")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func boundaryBefore(s string, i int) bool {
	return i == 0 || !isWordRune(rune(s[i-1]))
}

func boundaryAfter(s string, i int) bool {
	return i >= len(s) || !isWordRune(rune(s[i]))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lowerRunsOnly blanks out words that contain an upper-case letter.
func lowerRunsOnly(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		if strings.ToLower(w) != w {
			words[i] = "_"
		}
	}
	return strings.Join(words, " ")
}
